package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorIsValidation(t *testing.T) {
	err := Invalid("granularity", "must be at least 30 minutes")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err.Error() != "granularity must be at least 30 minutes" {
		t.Fatalf("message: %q", err.Error())
	}

	wrapped := fmt.Errorf("set windows: %w", err)
	var verr *ValidationError
	if !errors.As(wrapped, &verr) {
		t.Fatalf("expected ValidationError through wrapping")
	}
	if verr.Field != "granularity" {
		t.Fatalf("field: %q", verr.Field)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{Invalidf("date", "must not be before %s", "2024-06-03"), ErrValidation},
		{fmt.Errorf("book: %w", ErrSlotConflict), ErrSlotConflict},
		{ErrSlotUnavailable, ErrSlotUnavailable},
		{fmt.Errorf("cancel: %w", ErrPermission), ErrPermission},
		{errors.New("disk full"), nil},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
