package request

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown or soft-deleted request id
	ErrNotFound = errors.New("request not found")

	// ErrAlreadyFinal is returned when the request is already approved or rejected
	ErrAlreadyFinal = errors.New("request already final")

	// ErrWrongLevel is returned when a decision level is inconsistent with the
	// current status or the kind's configured level count
	ErrWrongLevel = errors.New("wrong approval level")

	// ErrLevel1Incomplete is returned when a level-2 decision is attempted
	// before level 1 resolved as approved
	ErrLevel1Incomplete = errors.New("level 1 not yet approved")

	// ErrForbidden is returned when the actor lacks a required grant
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned for nonsensical input such as an unknown kind
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyDeleted is returned for a duplicate soft delete
	ErrAlreadyDeleted = errors.New("request already deleted")
)

// ForbiddenReason distinguishes why an actor was denied
type ForbiddenReason string

const (
	ReasonPermission      ForbiddenReason = "permission"
	ReasonConfidentiality ForbiddenReason = "confidentiality"
)

// ForbiddenError carries the denial reason. It matches ErrForbidden under
// errors.Is so callers can branch on the class or the reason.
type ForbiddenError struct {
	Reason ForbiddenReason
}

// Error implements the error interface
func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// Is reports a match against ErrForbidden
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// NewForbidden creates a ForbiddenError with the given reason
func NewForbidden(reason ForbiddenReason) error {
	return &ForbiddenError{Reason: reason}
}
