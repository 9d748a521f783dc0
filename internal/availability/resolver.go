// Package availability computes which slots of a court can still be booked
// on a given date.
package availability

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/schedule"
)

// WindowSource returns the schedule windows of a court for one weekday.
type WindowSource interface {
	GetWindows(ctx context.Context, courtID int64, day time.Weekday) ([]schedule.Window, error)
}

// OccupancySource returns the slots held by live reservations.
type OccupancySource interface {
	ActiveSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error)
}

// Resolver reconciles generated slots with live reservations. It reads
// without locking, so its answers are advisory until a booking commits.
type Resolver struct {
	catalog   courts.Catalog
	windows   WindowSource
	occupancy OccupancySource
}

func NewResolver(catalog courts.Catalog, windows WindowSource, occupancy OccupancySource) (*Resolver, error) {
	if catalog == nil || windows == nil || occupancy == nil {
		return nil, errors.New("availability resolver requires a catalog, window source and occupancy source")
	}
	return &Resolver{catalog: catalog, windows: windows, occupancy: occupancy}, nil
}

// AvailableSlots returns the ascending slots of courtID on date that no
// pending or confirmed reservation holds. A court without windows that day,
// or an inactive court, has no slots.
func (r *Resolver) AvailableSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error) {
	offered, err := r.offeredSlots(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	if len(offered) == 0 {
		return offered, nil
	}

	occupied, err := r.occupancy.ActiveSlots(ctx, courtID, date)
	if err != nil {
		return nil, fmt.Errorf("occupied slots for court %d: %w", courtID, err)
	}
	taken := make(map[schedule.TimeOfDay]struct{}, len(occupied))
	for _, slot := range occupied {
		taken[slot] = struct{}{}
	}

	available := make([]schedule.TimeOfDay, 0, len(offered))
	for _, slot := range offered {
		if _, ok := taken[slot]; !ok {
			available = append(available, slot)
		}
	}
	return available, nil
}

// CheckSlot returns nil when slot can be booked. A slot no window produces
// yields apperr.ErrSlotUnavailable; one a live reservation holds yields
// apperr.ErrSlotConflict.
func (r *Resolver) CheckSlot(ctx context.Context, courtID int64, date time.Time, slot schedule.TimeOfDay) error {
	offered, err := r.offeredSlots(ctx, courtID, date)
	if err != nil {
		return err
	}
	if _, found := slices.BinarySearch(offered, slot); !found {
		return fmt.Errorf("court %d has no %s slot on %s: %w", courtID, slot, schedule.FormatDate(date), apperr.ErrSlotUnavailable)
	}

	occupied, err := r.occupancy.ActiveSlots(ctx, courtID, date)
	if err != nil {
		return fmt.Errorf("occupied slots for court %d: %w", courtID, err)
	}
	if slices.Contains(occupied, slot) {
		return fmt.Errorf("court %d %s %s: %w", courtID, schedule.FormatDate(date), slot, apperr.ErrSlotConflict)
	}
	return nil
}

// IsAvailable reports whether slot would appear in AvailableSlots.
func (r *Resolver) IsAvailable(ctx context.Context, courtID int64, date time.Time, slot schedule.TimeOfDay) (bool, error) {
	err := r.CheckSlot(ctx, courtID, date, slot)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperr.ErrSlotUnavailable), errors.Is(err, apperr.ErrSlotConflict):
		return false, nil
	default:
		return false, err
	}
}

// OccupiedSlots returns the ascending slots of courtID on date held by
// pending or confirmed reservations.
func (r *Resolver) OccupiedSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error) {
	if _, err := r.catalog.Get(ctx, courtID); err != nil {
		return nil, err
	}
	occupied, err := r.occupancy.ActiveSlots(ctx, courtID, date)
	if err != nil {
		return nil, fmt.Errorf("occupied slots for court %d: %w", courtID, err)
	}
	slices.Sort(occupied)
	return occupied, nil
}

func (r *Resolver) offeredSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error) {
	court, err := r.catalog.Get(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if court.Status != courts.StatusActive {
		return []schedule.TimeOfDay{}, nil
	}

	windows, err := r.windows.GetWindows(ctx, courtID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("windows for court %d: %w", courtID, err)
	}
	return schedule.UnionSlots(windows, date), nil
}

// SlotLength returns how long slot lasts on date: the granularity of the
// first enabled window that generates it.
func (r *Resolver) SlotLength(ctx context.Context, courtID int64, date time.Time, slot schedule.TimeOfDay) (time.Duration, error) {
	windows, err := r.windows.GetWindows(ctx, courtID, date.Weekday())
	if err != nil {
		return 0, fmt.Errorf("windows for court %d: %w", courtID, err)
	}
	for _, w := range windows {
		if _, found := slices.BinarySearch(schedule.GenerateSlots(w, date), slot); found {
			return time.Duration(w.Granularity) * time.Minute, nil
		}
	}
	return 0, fmt.Errorf("court %d has no %s slot on %s: %w", courtID, slot, schedule.FormatDate(date), apperr.ErrSlotUnavailable)
}
