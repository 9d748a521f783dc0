// Package reservations records bookings and enforces their status machine.
// The ledger is the only writer of reservation rows.
package reservations

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
	"github.com/codr1/courtbook/internal/schedule"
)

// Ledger persists reservations and their transition history.
type Ledger struct {
	db   *db.DB
	inTx bool
}

func NewLedger(database *db.DB) (*Ledger, error) {
	if database == nil {
		return nil, errors.New("reservation ledger requires a database")
	}
	return &Ledger{db: database}, nil
}

// RunInTx runs fn against a ledger bound to a single transaction. Calls on a
// ledger that is already transactional run fn directly.
func (l *Ledger) RunInTx(ctx context.Context, fn func(tx *Ledger) error) error {
	if l.inTx {
		return fn(l)
	}
	return l.db.RunInTx(ctx, func(txdb *db.DB) error {
		return fn(&Ledger{db: txdb, inTx: true})
	})
}

// NewReservation describes a row to insert.
type NewReservation struct {
	CourtID  int64
	UserID   int64
	Date     time.Time
	Slot     schedule.TimeOfDay
	StartsAt time.Time
	Status   Status
	At       time.Time
}

// Insert writes a reservation and its initial audit entry. A live
// reservation already holding the slot yields apperr.ErrSlotConflict.
func (l *Ledger) Insert(ctx context.Context, arg NewReservation) (Reservation, error) {
	if !arg.Status.Active() {
		return Reservation{}, fmt.Errorf("insert reservation with status %q: %w", arg.Status, apperr.ErrInvalidState)
	}

	var created Reservation
	err := l.RunInTx(ctx, func(tx *Ledger) error {
		row, err := tx.db.Queries.CreateReservation(ctx, dbq.CreateReservationParams{
			CourtID:         arg.CourtID,
			UserID:          arg.UserID,
			ReservationDate: schedule.FormatDate(arg.Date),
			SlotMinute:      int64(arg.Slot),
			StartsAt:        arg.StartsAt.Unix(),
			Status:          string(arg.Status),
			CreatedAt:       arg.At,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("court %d %s %s: %w", arg.CourtID, schedule.FormatDate(arg.Date), arg.Slot, apperr.ErrSlotConflict)
			}
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("court %d: %w", arg.CourtID, apperr.ErrNotFound)
			}
			return fmt.Errorf("create reservation: %w", err)
		}
		if err := tx.recordTransition(ctx, row.ID, "", arg.Status, arg.UserID, arg.At); err != nil {
			return err
		}
		created, err = fromRow(row)
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	return created, nil
}

// Get loads a reservation by id.
func (l *Ledger) Get(ctx context.Context, id int64) (Reservation, error) {
	row, err := l.db.Queries.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, fmt.Errorf("reservation %d: %w", id, apperr.ErrNotFound)
		}
		return Reservation{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return fromRow(row)
}

// ActiveSlots returns the slots held by pending or confirmed reservations of
// courtID on date, ascending.
func (l *Ledger) ActiveSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error) {
	minutes, err := l.db.Queries.ListActiveSlotMinutes(ctx, dbq.ListActiveSlotMinutesParams{
		CourtID:         courtID,
		ReservationDate: schedule.FormatDate(date),
	})
	if err != nil {
		return nil, fmt.Errorf("list active slots for court %d: %w", courtID, err)
	}
	slots := make([]schedule.TimeOfDay, 0, len(minutes))
	for _, m := range minutes {
		slots = append(slots, schedule.TimeOfDay(m))
	}
	return slots, nil
}

// TransitionParams moves reservation ID from From to To. ActorUserID is zero
// for system transitions.
type TransitionParams struct {
	ID          int64
	From        Status
	To          Status
	ActorUserID int64
	At          time.Time
}

// Transition applies a status change if the reservation is still in From.
// Illegal moves and lost races yield apperr.ErrInvalidState.
func (l *Ledger) Transition(ctx context.Context, arg TransitionParams) (Reservation, error) {
	if !CanTransition(arg.From, arg.To) {
		return Reservation{}, fmt.Errorf("reservation %d %s -> %s: %w", arg.ID, arg.From, arg.To, apperr.ErrInvalidState)
	}

	var updated Reservation
	err := l.RunInTx(ctx, func(tx *Ledger) error {
		row, err := tx.db.Queries.UpdateReservationStatus(ctx, dbq.UpdateReservationStatusParams{
			ID:         arg.ID,
			FromStatus: string(arg.From),
			ToStatus:   string(arg.To),
			UpdatedAt:  arg.At,
		})
		if errors.Is(err, sql.ErrNoRows) {
			current, getErr := tx.Get(ctx, arg.ID)
			if getErr != nil {
				return getErr
			}
			log.Ctx(ctx).Warn().
				Int64("reservation_id", arg.ID).
				Str("expected", string(arg.From)).
				Str("actual", string(current.Status)).
				Str("target", string(arg.To)).
				Msg("Reservation transition lost to a concurrent change")
			return fmt.Errorf("reservation %d is %s, not %s: %w", arg.ID, current.Status, arg.From, apperr.ErrInvalidState)
		}
		if err != nil {
			return fmt.Errorf("update reservation %d: %w", arg.ID, err)
		}
		if err := tx.recordTransition(ctx, row.ID, arg.From, arg.To, arg.ActorUserID, arg.At); err != nil {
			return err
		}
		updated, err = fromRow(row)
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	return updated, nil
}

// ListDueForCompletion returns up to limit confirmed reservations that
// started at or before before, oldest first.
func (l *Ledger) ListDueForCompletion(ctx context.Context, before time.Time, limit int) ([]Reservation, error) {
	if limit <= 0 {
		limit = MaxListLimit
	}
	rows, err := l.db.Queries.ListReservationsDueForCompletion(ctx, dbq.ListReservationsDueForCompletionParams{
		StartsBefore: before.Unix(),
		Limit:        int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations due for completion: %w", err)
	}
	return fromRows(rows)
}

// CountActiveForUserOnDate counts the pending or confirmed reservations
// userID holds on date across all courts.
func (l *Ledger) CountActiveForUserOnDate(ctx context.Context, userID int64, date time.Time) (int, error) {
	count, err := l.db.Queries.CountActiveReservationsForUserOnDate(ctx, dbq.CountActiveReservationsForUserOnDateParams{
		UserID:          userID,
		ReservationDate: schedule.FormatDate(date),
	})
	if err != nil {
		return 0, fmt.Errorf("count reservations for user %d: %w", userID, err)
	}
	return int(count), nil
}

// Transitions returns the audit trail of a reservation, oldest first.
func (l *Ledger) Transitions(ctx context.Context, id int64) ([]Transition, error) {
	rows, err := l.db.Queries.ListReservationTransitions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list transitions for reservation %d: %w", id, err)
	}
	items := make([]Transition, 0, len(rows))
	for _, row := range rows {
		items = append(items, Transition{
			From:        Status(row.FromStatus),
			To:          Status(row.ToStatus),
			ActorUserID: row.ActorUserID.Int64,
			At:          row.OccurredAt,
		})
	}
	return items, nil
}

func (l *Ledger) recordTransition(ctx context.Context, id int64, from, to Status, actorUserID int64, at time.Time) error {
	err := l.db.Queries.CreateReservationTransition(ctx, dbq.CreateReservationTransitionParams{
		ReservationID: id,
		FromStatus:    string(from),
		ToStatus:      string(to),
		ActorUserID:   sql.NullInt64{Int64: actorUserID, Valid: actorUserID > 0},
		OccurredAt:    at,
	})
	if err != nil {
		return fmt.Errorf("record transition for reservation %d: %w", id, err)
	}
	return nil
}
