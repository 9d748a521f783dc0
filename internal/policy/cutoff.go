// Package policy supplies the cancellation cutoff applied to a court.
package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/db"
	dbq "github.com/codr1/courtbook/internal/db/queries"
)

// CutoffSource returns how long before a reservation's start it may still
// be cancelled.
type CutoffSource interface {
	CancellationCutoff(ctx context.Context, courtID int64) (time.Duration, error)
}

// Static applies the same cutoff to every court.
type Static time.Duration

func (s Static) CancellationCutoff(context.Context, int64) (time.Duration, error) {
	return time.Duration(s), nil
}

// CourtOverrides reads per-court cutoffs and falls back to a default for
// courts without one.
type CourtOverrides struct {
	db       *db.DB
	fallback time.Duration
}

func NewCourtOverrides(database *db.DB, fallback time.Duration) (*CourtOverrides, error) {
	if database == nil {
		return nil, errors.New("court overrides require a database")
	}
	if fallback < 0 {
		return nil, fmt.Errorf("fallback cutoff must not be negative, got %s", fallback)
	}
	return &CourtOverrides{db: database, fallback: fallback}, nil
}

func (c *CourtOverrides) CancellationCutoff(ctx context.Context, courtID int64) (time.Duration, error) {
	minutes, err := c.db.Queries.GetCancellationCutoff(ctx, courtID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cancellation cutoff for court %d: %w", courtID, err)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// SetCutoff stores a court specific cutoff, rounded down to whole minutes.
func (c *CourtOverrides) SetCutoff(ctx context.Context, courtID int64, cutoff time.Duration) error {
	if cutoff < 0 {
		return apperr.Invalid("cutoff", "must not be negative")
	}
	err := c.db.Queries.UpsertCancellationCutoff(ctx, dbq.UpsertCancellationCutoffParams{
		CourtID:       courtID,
		CutoffMinutes: int64(cutoff / time.Minute),
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("court %d: %w", courtID, apperr.ErrNotFound)
		}
		return fmt.Errorf("set cancellation cutoff for court %d: %w", courtID, err)
	}
	log.Ctx(ctx).Info().
		Int64("court_id", courtID).
		Dur("cutoff", cutoff).
		Msg("Cancellation cutoff updated")
	return nil
}

// ClearCutoff removes a court specific cutoff so the default applies again.
func (c *CourtOverrides) ClearCutoff(ctx context.Context, courtID int64) error {
	if err := c.db.Queries.DeleteCancellationCutoff(ctx, courtID); err != nil {
		return fmt.Errorf("clear cancellation cutoff for court %d: %w", courtID, err)
	}
	return nil
}
