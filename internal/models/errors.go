package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a task does not exist or belongs to another owner.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input rejected before the store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError is returned when a direct write would overlap an active task.
type ConflictError struct {
	Blocking Task
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlaps with %q", e.Blocking.Title)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
