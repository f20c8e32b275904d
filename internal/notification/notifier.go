package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/dispatcher"
	"github.com/hrops/approval-engine/internal/domain/event"
)

// Message is the rendered notification handed to a delivery client.
type Message struct {
	RecipientID string
	Subject     string
	Body        string
	RequestID   string
	EventType   event.Type
}

// DeliveryClient sends a rendered message to its recipient. Implementations
// wrap whatever channel the deployment uses (chat bot, email gateway).
type DeliveryClient interface {
	Send(ctx context.Context, msg *Message) error
}

// Notifier renders engine events into messages and pushes them through a
// delivery client. It subscribes to the dispatcher and relies on async
// dispatch, so a slow channel never blocks an approval transition.
type Notifier struct {
	client DeliveryClient
	logger *zap.Logger
}

// NewNotifier creates a notifier backed by the given delivery client.
func NewNotifier(client DeliveryClient, logger *zap.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
	}
}

// Register subscribes the notifier to every event type it renders.
func (n *Notifier) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeReviewPending, "notifier", n.handle)
	d.SubscribeNamed(event.TypeDecided, "notifier", n.handle)
	d.SubscribeNamed(event.TypeFinalized, "notifier", n.handle)
}

func (n *Notifier) handle(ctx context.Context, evt *event.Event) error {
	msg := n.render(evt)
	if msg == nil {
		return nil
	}

	if err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Debug("notification sent",
		zap.String("event_id", evt.ID),
		zap.String("request_id", evt.RequestID),
		zap.String("recipient", msg.RecipientID))
	return nil
}

func (n *Notifier) render(evt *event.Event) *Message {
	switch evt.Type {
	case event.TypeReviewPending:
		// Reviewers hold the permission key, not a user id, so the message
		// is addressed to the reviewer group for the pending level.
		return &Message{
			RecipientID: fmt.Sprintf("reviewers:%s:l%d", evt.Kind, evt.GetPayloadInt("level")),
			Subject:     fmt.Sprintf("%s request awaiting review", evt.Kind),
			Body:        fmt.Sprintf("Request %s is awaiting level %d review.", evt.RequestID, evt.GetPayloadInt("level")),
			RequestID:   evt.RequestID,
			EventType:   evt.Type,
		}
	case event.TypeDecided:
		return &Message{
			RecipientID: evt.GetPayloadString("requester_id"),
			Subject:     fmt.Sprintf("%s request %s", evt.Kind, evt.GetPayloadString("action")),
			Body: fmt.Sprintf("Request %s received a level %d %s decision.",
				evt.RequestID, evt.GetPayloadInt("level"), evt.GetPayloadString("action")),
			RequestID: evt.RequestID,
			EventType: evt.Type,
		}
	case event.TypeFinalized:
		return &Message{
			RecipientID: evt.GetPayloadString("requester_id"),
			Subject:     fmt.Sprintf("%s request %s", evt.Kind, evt.GetPayloadString("status")),
			Body:        fmt.Sprintf("Request %s is now %s.", evt.RequestID, evt.GetPayloadString("status")),
			RequestID:   evt.RequestID,
			EventType:   evt.Type,
		}
	default:
		return nil
	}
}

// LogClient is the default delivery client; it writes each message to the
// structured log. Deployments swap in a real channel behind DeliveryClient.
type LogClient struct {
	logger *zap.Logger
}

// NewLogClient creates a delivery client that logs messages.
func NewLogClient(logger *zap.Logger) *LogClient {
	return &LogClient{logger: logger}
}

// Send logs the message.
func (c *LogClient) Send(_ context.Context, msg *Message) error {
	c.logger.Info("notification",
		zap.String("recipient", msg.RecipientID),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
		zap.String("request_id", msg.RequestID),
		zap.String("event_type", msg.EventType.String()))
	return nil
}

// Verify interface compliance
var _ DeliveryClient = (*LogClient)(nil)
