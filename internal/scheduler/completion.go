package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

const CompletionSweepJob = "reservation_completion_sweep"

// Sweeper completes reservations whose start time has passed.
type Sweeper interface {
	SweepCompleted(ctx context.Context, now time.Time) (int, error)
}

// RegisterCompletionSweep schedules sweeper on cronExpr.
func RegisterCompletionSweep(s *Service, sweeper Sweeper, cronExpr string) error {
	if sweeper == nil {
		return errors.New("completion sweep requires a sweeper")
	}
	_, err := s.AddJob(CompletionSweepJob, cronExpr, func(ctx context.Context) error {
		return runCompletionSweep(ctx, sweeper, time.Now())
	})
	return err
}

func runCompletionSweep(ctx context.Context, sweeper Sweeper, now time.Time) error {
	completed, err := sweeper.SweepCompleted(ctx, now)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int("completed", completed).Msg("Completion sweep finished")
	return nil
}
