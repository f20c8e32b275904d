package request

// Status represents a request's place in the approval lifecycle
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusLevel1Approved Status = "LEVEL1_APPROVED"
	StatusApproved       Status = "APPROVED"
	StatusRejected       Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusPending:        true,
	StatusLevel1Approved: true,
	StatusApproved:       true,
	StatusRejected:       true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// statusRank orders statuses along the approval ladder. Rejected shares the
// top rank with Approved: both end the lifecycle.
var statusRank = map[Status]int{
	StatusPending:        0,
	StatusLevel1Approved: 1,
	StatusApproved:       2,
	StatusRejected:       2,
}

// allowedTransitions is the closed transition table. A status may only move
// forward; Approved and Rejected have no outgoing transitions.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusLevel1Approved: true,
		StatusApproved:       true,
		StatusRejected:       true,
	},
	StatusLevel1Approved: {
		StatusApproved: true,
		StatusRejected: true,
	},
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a valid request status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if the status is terminal (no further decisions allowed)
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// Rank returns the status position on the approval ladder
func (s Status) Rank() int {
	return statusRank[s]
}

// CanTransition returns true if the move from s to target is permitted
func (s Status) CanTransition(target Status) bool {
	return allowedTransitions[s][target]
}
