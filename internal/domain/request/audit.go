package request

import "time"

// TransitionRecord is one immutable entry in a request's audit trail. A
// record is written for every engine mutation, including the synthetic
// decisions of the auto-approval path, so the trail reads the same
// regardless of how a request reached its status.
type TransitionRecord struct {
	ID             int64     `json:"id"`
	RequestID      string    `json:"request_id"`
	ActorID        string    `json:"actor_id"`
	Level          int       `json:"level,omitempty"`
	ActionType     string    `json:"action_type"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
	NewStatus      Status    `json:"new_status"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Audit action types
const (
	AuditActionSubmit     = "SUBMIT"
	AuditActionApprove    = "APPROVE"
	AuditActionReject     = "REJECT"
	AuditActionSoftDelete = "SOFT_DELETE"
)
