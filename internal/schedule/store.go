// Package schedule models the weekly operating windows of a court and turns
// them into bookable slots.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/db"
	dbq "github.com/codr1/courtbook/internal/db/queries"
)

// Store persists schedule windows. Writes replace a court's full window set;
// they never touch existing reservations.
type Store struct {
	db      *db.DB
	catalog courts.Catalog
}

func NewStore(database *db.DB, catalog courts.Catalog) (*Store, error) {
	if database == nil {
		return nil, errors.New("schedule store requires a database")
	}
	if catalog == nil {
		return nil, errors.New("schedule store requires a court catalog")
	}
	return &Store{db: database, catalog: catalog}, nil
}

// SetWindows replaces every window of courtID with windows. ownerUserID must
// own the court. All windows are validated before anything is written.
func (s *Store) SetWindows(ctx context.Context, courtID, ownerUserID int64, windows []Window) ([]Window, error) {
	if _, err := courts.RequireOwner(ctx, s.catalog, courtID, ownerUserID); err != nil {
		return nil, err
	}
	for idx, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, prefixField(fmt.Sprintf("windows[%d]", idx), err)
		}
	}

	saved := make([]Window, 0, len(windows))
	var removed int64
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		var err error
		removed, err = txdb.Queries.DeleteScheduleWindows(ctx, courtID)
		if err != nil {
			return fmt.Errorf("delete schedule windows: %w", err)
		}
		for _, w := range windows {
			row, err := txdb.Queries.CreateScheduleWindow(ctx, dbq.CreateScheduleWindowParams{
				CourtID:            courtID,
				DayOfWeek:          int64(w.DayOfWeek),
				StartMinute:        int64(w.Start),
				EndMinute:          int64(w.End),
				GranularityMinutes: int64(w.Granularity),
				Enabled:            w.Enabled,
			})
			if err != nil {
				return fmt.Errorf("create schedule window: %w", err)
			}
			saved = append(saved, windowFromRow(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64("court_id", courtID).
		Int64("owner_user_id", ownerUserID).
		Int64("replaced", removed).
		Int("windows", len(saved)).
		Msg("Schedule windows replaced")
	return saved, nil
}

// GetWindows returns the windows of courtID for day, in no particular order.
func (s *Store) GetWindows(ctx context.Context, courtID int64, day time.Weekday) ([]Window, error) {
	rows, err := s.db.Queries.ListScheduleWindowsByDay(ctx, dbq.ListScheduleWindowsByDayParams{
		CourtID:   courtID,
		DayOfWeek: int64(day),
	})
	if err != nil {
		return nil, fmt.Errorf("list schedule windows for court %d day %d: %w", courtID, day, err)
	}
	return windowsFromRows(rows), nil
}

// ListWindows returns every window of courtID ordered by day and start.
func (s *Store) ListWindows(ctx context.Context, courtID int64) ([]Window, error) {
	rows, err := s.db.Queries.ListScheduleWindows(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("list schedule windows for court %d: %w", courtID, err)
	}
	return windowsFromRows(rows), nil
}

func windowsFromRows(rows []dbq.ScheduleWindow) []Window {
	windows := make([]Window, 0, len(rows))
	for _, row := range rows {
		windows = append(windows, windowFromRow(row))
	}
	return windows
}

func windowFromRow(row dbq.ScheduleWindow) Window {
	return Window{
		ID:          row.ID,
		CourtID:     row.CourtID,
		DayOfWeek:   time.Weekday(row.DayOfWeek),
		Start:       TimeOfDay(row.StartMinute),
		End:         TimeOfDay(row.EndMinute),
		Granularity: int(row.GranularityMinutes),
		Enabled:     row.Enabled,
	}
}
