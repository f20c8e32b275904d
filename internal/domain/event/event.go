package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the record the engine hands to the audit/notification sink after a
// committed mutation. Delivery is best-effort; a committed transition never
// depends on it.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	RequestID string                 `json:"request_id"`
	Kind      string                 `json:"kind"`
	ActorID   string                 `json:"actor_id"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// New creates a new domain event with a generated ID and current timestamp
func New(eventType Type, requestID, kind, actorID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Kind:      kind,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int value from the payload
func (e *Event) GetPayloadInt(key string) int {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// GetPayloadBool retrieves a bool value from the payload
func (e *Event) GetPayloadBool(key string) bool {
	if val, ok := e.Payload[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}
