// Package apperr defines the error kinds shared by the scheduling and booking
// packages. Callers classify failures with errors.Is against the sentinels.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrSlotConflict    = errors.New("slot already taken")
	ErrInvalidState    = errors.New("invalid reservation state")
	ErrCutoffPassed    = errors.New("cancellation cutoff passed")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Invalidf builds a ValidationError with a formatted reason.
func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Kind returns the sentinel err belongs to, or nil for infrastructure errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrNotFound,
		ErrPermission,
		ErrSlotUnavailable,
		ErrSlotConflict,
		ErrInvalidState,
		ErrCutoffPassed,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
