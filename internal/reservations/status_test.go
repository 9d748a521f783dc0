package reservations

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Confirmed ")
	if err != nil || got != StatusConfirmed {
		t.Fatalf("ParseStatus: got %q, %v", got, err)
	}
	if _, err := ParseStatus("finalizado"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if !StatusPending.Active() || StatusCancelled.Active() || !StatusCompleted.Terminal() {
		t.Fatalf("status classification is wrong")
	}
}
