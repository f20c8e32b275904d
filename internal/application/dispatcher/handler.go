package dispatcher

import (
	"context"

	"github.com/hrops/approval-engine/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo pairs a handler with a name for logging and removal
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
