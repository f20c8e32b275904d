package request

import "time"

// Action is the verdict recorded by an approver at one level
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsValid returns true if the action is a defined decision action
func (a Action) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// Decision is one approver's verdict at a single level. A level holds at most
// one decision, ever.
type Decision struct {
	ApproverID string    `json:"approver_id"`
	Action     Action    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}
