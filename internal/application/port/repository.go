// Package port defines the interfaces the engine consumes. Implementations
// live under internal/infrastructure; tests substitute fakes.
package port

import (
	"context"
	"time"

	"github.com/hrops/approval-engine/internal/domain/request"
)

// ListFilter narrows a request listing. Nil/zero fields are ignored.
type ListFilter struct {
	Kind           *request.Kind
	Status         *request.Status
	RequesterID    string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// RequestRepository defines persistence operations for ApprovalRequest.
// Lookups return (nil, nil) when no row matches.
type RequestRepository interface {
	Create(ctx context.Context, req *request.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*request.ApprovalRequest, error)

	// RecordDecision stores the decision for a level and moves the status
	// from fromStatus to toStatus in one guarded write. It returns
	// request.ErrAlreadyFinal when the stored status no longer matches
	// fromStatus, so a concurrent writer surfaces as a conflict instead of a
	// lost update.
	RecordDecision(ctx context.Context, id string, level int, d *request.Decision, fromStatus, toStatus request.Status) error

	// MarkDeleted sets the soft-delete marker. It returns
	// request.ErrAlreadyDeleted when the marker is already present.
	MarkDeleted(ctx context.Context, id, actorID string, at time.Time) error

	List(ctx context.Context, filter ListFilter) ([]*request.ApprovalRequest, error)
}

// AuditRepository defines persistence for the append-only transition log
type AuditRepository interface {
	Create(ctx context.Context, rec *request.TransitionRecord) error
	ListByRequestID(ctx context.Context, requestID string) ([]*request.TransitionRecord, error)
}

// TransactionManager executes a function within a storage transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
