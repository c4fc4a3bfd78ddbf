package services

import (
	"errors"
	"fmt"
)

// Expected membership conflicts. Callers distinguish these from failures so a
// double join is a signalled no-op, not a silent success or a fault.
var (
	ErrAlreadyMember = errors.New("user is already a participant")
	ErrNotMember     = errors.New("user is not a participant")
)

// ValidationError rejects bad input before any store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
