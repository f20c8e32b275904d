package event

// Type identifies the type of domain event
type Type string

const (
	TypeSubmitted     Type = "request.submitted"
	TypeReviewPending Type = "request.review_pending"
	TypeDecided       Type = "request.decided"
	TypeFinalized     Type = "request.finalized"
	TypeDeleted       Type = "request.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSubmitted,
		TypeReviewPending,
		TypeDecided,
		TypeFinalized,
		TypeDeleted:
		return true
	default:
		return false
	}
}
