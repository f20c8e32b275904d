package utils

import (
	"fmt"
	"regexp"
)

const maxIDLength = 64

var (
	idPattern       = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)
	controlPattern  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	maxCommentBytes = 2000
)

// ValidateID checks an external identifier (user or request id) before it
// reaches the engine or a SQL query.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("id exceeds %d characters", maxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id contains invalid characters: %s", id)
	}
	return nil
}

// ValidateComment bounds a free-text decision comment.
func ValidateComment(comment string) error {
	if len(comment) > maxCommentBytes {
		return fmt.Errorf("comment exceeds %d bytes", maxCommentBytes)
	}
	return nil
}

// SanitizeString removes control characters from free-form input
func SanitizeString(s string) string {
	return controlPattern.ReplaceAllString(s, "")
}
