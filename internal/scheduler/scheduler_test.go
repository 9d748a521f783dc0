package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSweeper struct {
	calls []time.Time
	err   error
}

func (r *recordingSweeper) SweepCompleted(_ context.Context, now time.Time) (int, error) {
	r.calls = append(r.calls, now)
	return len(r.calls), r.err
}

func TestAddJobValidation(t *testing.T) {
	svc, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	noop := func(context.Context) error { return nil }
	if _, err := svc.AddJob("", "* * * * *", noop); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("expected empty name error, got %v", err)
	}
	if _, err := svc.AddJob("job", " ", noop); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("expected empty cron error, got %v", err)
	}
	if _, err := svc.AddJob("job", "* * * * *", nil); !errors.Is(err, ErrNilTask) {
		t.Fatalf("expected nil task error, got %v", err)
	}
	if _, err := svc.AddJob("job", "not a cron", noop); err == nil {
		t.Fatalf("expected invalid cron to be rejected")
	}

	var nilSvc *Service
	if _, err := nilSvc.AddJob("job", "* * * * *", noop); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}

func TestRegisterCompletionSweep(t *testing.T) {
	svc, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	if err := RegisterCompletionSweep(svc, &recordingSweeper{}, "*/5 * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	jobs := svc.Jobs()
	if len(jobs) != 1 || jobs[0].Name() != CompletionSweepJob {
		t.Fatalf("jobs: %v", jobs)
	}

	if err := RegisterCompletionSweep(svc, nil, "*/5 * * * *"); err == nil {
		t.Fatalf("expected error for nil sweeper")
	}
}

func TestRunCompletionSweep(t *testing.T) {
	now := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	sweeper := &recordingSweeper{}

	if err := runCompletionSweep(context.Background(), sweeper, now); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sweeper.calls) != 1 || !sweeper.calls[0].Equal(now) {
		t.Fatalf("calls: %v", sweeper.calls)
	}

	sweeper.err = errors.New("database locked")
	if err := runCompletionSweep(context.Background(), sweeper, now); err == nil {
		t.Fatalf("expected sweep error to propagate")
	}
}
