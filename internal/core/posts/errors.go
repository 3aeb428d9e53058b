package posts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common post operations
var (
	// ErrNotFound is returned when a post is not found by ID
	ErrNotFound = errors.New("post not found")

	// ErrKindMismatch is returned when an update payload would change the post's kind
	// (text, image and file posts cannot be converted into each other)
	ErrKindMismatch = errors.New("post kind cannot be changed")

	// ErrNotChild is returned when a child post does not belong to the given parent
	ErrNotChild = errors.New("post is not a child of the given parent")

	// ErrInvalidFileID is returned for attachments whose file identifier is not a valid CID
	ErrInvalidFileID = errors.New("invalid file identifier")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
