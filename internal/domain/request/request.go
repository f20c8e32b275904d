// Package request holds the approval request entity and its closed
// vocabulary: kinds, statuses, positions, decision actions and the typed
// errors the engine surfaces to callers.
package request

import (
	"encoding/json"
	"time"
)

// ApprovalRequest is the unit the engine operates on. The payload is opaque
// kind-specific data the engine never inspects.
type ApprovalRequest struct {
	ID                string          `json:"id"`
	Kind              Kind            `json:"kind"`
	RequesterID       string          `json:"requester_id"`
	RequesterPosition Position        `json:"requester_position"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	Status            Status          `json:"status"`
	Level1            *Decision       `json:"level1,omitempty"`
	Level2            *Decision       `json:"level2,omitempty"`
	Confidential      bool            `json:"confidential"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	DeletedBy         string          `json:"deleted_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// New creates a pending request with the requester's position snapshotted
func New(id string, kind Kind, requesterID string, position Position, payload json.RawMessage, confidential bool, now time.Time) *ApprovalRequest {
	return &ApprovalRequest{
		ID:                id,
		Kind:              kind,
		RequesterID:       requesterID,
		RequesterPosition: position,
		Payload:           payload,
		Status:            StatusPending,
		Confidential:      confidential,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Final returns true when no further decisions are accepted
func (r *ApprovalRequest) Final() bool {
	return r.Status.IsTerminal()
}

// Deleted returns true when the request carries a soft-delete marker
func (r *ApprovalRequest) Deleted() bool {
	return r.DeletedAt != nil
}

// DecisionAt returns the decision recorded at the given level, or nil
func (r *ApprovalRequest) DecisionAt(level int) *Decision {
	switch level {
	case 1:
		return r.Level1
	case 2:
		return r.Level2
	default:
		return nil
	}
}

// SetDecision stores a decision at the given level. Levels outside 1..2 are
// ignored; the engine validates levels before calling this.
func (r *ApprovalRequest) SetDecision(level int, d *Decision) {
	switch level {
	case 1:
		r.Level1 = d
	case 2:
		r.Level2 = d
	}
}
