// Package booking commits and cancels reservations. Every write to a slot is
// serialized on a per-slot key so two users can never hold the same slot.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/events"
	"github.com/codr1/courtbook/internal/keylock"
	"github.com/codr1/courtbook/internal/policy"
	"github.com/codr1/courtbook/internal/reservations"
	"github.com/codr1/courtbook/internal/schedule"
)

const (
	sweepBatchSize = 100
	publishTimeout = 5 * time.Second
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SlotChecker decides whether a slot can be booked right now. It returns
// apperr.ErrSlotUnavailable or apperr.ErrSlotConflict when it cannot.
type SlotChecker interface {
	CheckSlot(ctx context.Context, courtID int64, date time.Time, slot schedule.TimeOfDay) error
}

// Coordinator is the only path that creates or cancels reservations.
type Coordinator struct {
	ledger  *reservations.Ledger
	slots   SlotChecker
	locker  keylock.Locker
	cutoffs policy.CutoffSource

	publisher  events.Publisher
	clock      Clock
	location   *time.Location
	dailyLimit int
}

type Option func(*Coordinator)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLocation sets the facility time zone that dates and slots are read in.
func WithLocation(loc *time.Location) Option {
	return func(c *Coordinator) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithPublisher announces committed state changes. Publishing happens after
// the commit and its failures are only logged.
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithDailyLimit caps the live reservations one user may hold per date
// across all courts. Zero disables the cap.
func WithDailyLimit(limit int) Option {
	return func(c *Coordinator) {
		if limit >= 0 {
			c.dailyLimit = limit
		}
	}
}

func NewCoordinator(ledger *reservations.Ledger, slots SlotChecker, locker keylock.Locker, cutoffs policy.CutoffSource, opts ...Option) (*Coordinator, error) {
	if ledger == nil || slots == nil || locker == nil || cutoffs == nil {
		return nil, errors.New("booking coordinator requires a ledger, slot checker, locker and cutoff source")
	}
	c := &Coordinator{
		ledger:    ledger,
		slots:     slots,
		locker:    locker,
		cutoffs:   cutoffs,
		publisher: events.Nop{},
		clock:     realClock{},
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BookRequest asks for one slot of one court on one date.
type BookRequest struct {
	CourtID int64
	UserID  int64
	Date    time.Time
	Slot    schedule.TimeOfDay
}

// Book confirms a reservation for req. It fails with a validation error for
// malformed or past requests, apperr.ErrSlotUnavailable when no window
// offers the slot and apperr.ErrSlotConflict when someone else holds it.
func (c *Coordinator) Book(ctx context.Context, req BookRequest) (reservations.Reservation, error) {
	date, startsAt, err := c.validateBooking(req)
	if err != nil {
		return reservations.Reservation{}, err
	}

	if c.dailyLimit > 0 {
		release, err := c.locker.Acquire(ctx, userDateKey(req.UserID, date))
		if err != nil {
			return reservations.Reservation{}, fmt.Errorf("lock user %d: %w", req.UserID, err)
		}
		defer release()
	}
	release, err := c.locker.Acquire(ctx, slotKey(req.CourtID, date, req.Slot))
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("lock slot: %w", err)
	}
	defer release()

	if err := c.slots.CheckSlot(ctx, req.CourtID, date, req.Slot); err != nil {
		return reservations.Reservation{}, err
	}
	if c.dailyLimit > 0 {
		held, err := c.ledger.CountActiveForUserOnDate(ctx, req.UserID, date)
		if err != nil {
			return reservations.Reservation{}, err
		}
		if held >= c.dailyLimit {
			return reservations.Reservation{}, apperr.Invalidf("date", "already holds %d reservation(s) on %s", held, schedule.FormatDate(date))
		}
	}

	now := c.clock.Now()
	var confirmed reservations.Reservation
	err = c.ledger.RunInTx(ctx, func(tx *reservations.Ledger) error {
		pending, err := tx.Insert(ctx, reservations.NewReservation{
			CourtID:  req.CourtID,
			UserID:   req.UserID,
			Date:     date,
			Slot:     req.Slot,
			StartsAt: startsAt,
			Status:   reservations.StatusPending,
			At:       now,
		})
		if err != nil {
			return err
		}
		confirmed, err = tx.Transition(ctx, reservations.TransitionParams{
			ID:          pending.ID,
			From:        reservations.StatusPending,
			To:          reservations.StatusConfirmed,
			ActorUserID: req.UserID,
			At:          now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrSlotConflict) {
			log.Ctx(ctx).Warn().
				Int64("court_id", req.CourtID).
				Str("date", schedule.FormatDate(date)).
				Str("slot", req.Slot.String()).
				Msg("Booking rejected by slot uniqueness")
		}
		return reservations.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", confirmed.ID).
		Int64("court_id", confirmed.CourtID).
		Int64("user_id", confirmed.UserID).
		Str("date", schedule.FormatDate(date)).
		Str("slot", req.Slot.String()).
		Msg("Reservation confirmed")
	c.publish(ctx, confirmed, now)
	return confirmed, nil
}

func (c *Coordinator) validateBooking(req BookRequest) (time.Time, time.Time, error) {
	if req.CourtID <= 0 {
		return time.Time{}, time.Time{}, apperr.Invalid("court_id", "must be a positive integer")
	}
	if req.UserID <= 0 {
		return time.Time{}, time.Time{}, apperr.Invalid("user_id", "must be a positive integer")
	}
	if req.Date.IsZero() {
		return time.Time{}, time.Time{}, apperr.Invalid("date", "is required")
	}
	if !req.Slot.Valid() {
		return time.Time{}, time.Time{}, apperr.Invalid("slot", "must be a time within the day")
	}

	date := schedule.DateOf(req.Date)
	now := c.clock.Now().In(c.location)
	if date.Before(schedule.DateOf(now)) {
		return time.Time{}, time.Time{}, apperr.Invalidf("date", "%s is in the past", schedule.FormatDate(date))
	}
	startsAt := schedule.At(date, req.Slot, c.location)
	if !startsAt.After(now) {
		return time.Time{}, time.Time{}, apperr.Invalidf("slot", "%s on %s has already started", req.Slot, schedule.FormatDate(date))
	}
	return date, startsAt, nil
}

// Cancel cancels a pending or confirmed reservation owned by userID.
// Cancelling an already cancelled reservation returns it unchanged.
func (c *Coordinator) Cancel(ctx context.Context, reservationID, userID int64) (reservations.Reservation, error) {
	if reservationID <= 0 {
		return reservations.Reservation{}, apperr.Invalid("reservation_id", "must be a positive integer")
	}
	if userID <= 0 {
		return reservations.Reservation{}, apperr.Invalid("user_id", "must be a positive integer")
	}

	release, err := c.locker.Acquire(ctx, reservationKey(reservationID))
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("lock reservation %d: %w", reservationID, err)
	}
	defer release()

	r, err := c.ledger.Get(ctx, reservationID)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if r.UserID != userID {
		return reservations.Reservation{}, fmt.Errorf("reservation %d belongs to another user: %w", reservationID, apperr.ErrPermission)
	}
	switch {
	case r.Status == reservations.StatusCancelled:
		return r, nil
	case r.Status.Terminal():
		return reservations.Reservation{}, fmt.Errorf("reservation %d is %s: %w", reservationID, r.Status, apperr.ErrInvalidState)
	}

	cutoff, err := c.cutoffs.CancellationCutoff(ctx, r.CourtID)
	if err != nil {
		return reservations.Reservation{}, err
	}
	now := c.clock.Now()
	if deadline := r.StartsAt.Add(-cutoff); !now.Before(deadline) {
		return reservations.Reservation{}, fmt.Errorf("reservation %d could be cancelled until %s: %w", reservationID, deadline.Format(time.RFC3339), apperr.ErrCutoffPassed)
	}

	cancelled, err := c.ledger.Transition(ctx, reservations.TransitionParams{
		ID:          reservationID,
		From:        r.Status,
		To:          reservations.StatusCancelled,
		ActorUserID: userID,
		At:          now,
	})
	if err != nil {
		return reservations.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", reservationID).
		Int64("user_id", userID).
		Msg("Reservation cancelled")
	c.publish(ctx, cancelled, now)
	return cancelled, nil
}

// Complete marks a confirmed reservation as played. Reservations that have
// not started yet are rejected with apperr.ErrInvalidState.
func (c *Coordinator) Complete(ctx context.Context, reservationID int64) (reservations.Reservation, error) {
	return c.complete(ctx, reservationID, c.clock.Now())
}

func (c *Coordinator) complete(ctx context.Context, reservationID int64, now time.Time) (reservations.Reservation, error) {
	release, err := c.locker.Acquire(ctx, reservationKey(reservationID))
	if err != nil {
		return reservations.Reservation{}, fmt.Errorf("lock reservation %d: %w", reservationID, err)
	}
	defer release()

	r, err := c.ledger.Get(ctx, reservationID)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if now.Before(r.StartsAt) {
		return reservations.Reservation{}, fmt.Errorf("reservation %d starts at %s: %w", reservationID, r.StartsAt.Format(time.RFC3339), apperr.ErrInvalidState)
	}

	completed, err := c.ledger.Transition(ctx, reservations.TransitionParams{
		ID:   reservationID,
		From: reservations.StatusConfirmed,
		To:   reservations.StatusCompleted,
		At:   now,
	})
	if err != nil {
		return reservations.Reservation{}, err
	}
	c.publish(ctx, completed, now)
	return completed, nil
}

func (c *Coordinator) publish(ctx context.Context, r reservations.Reservation, at time.Time) {
	evt, ok := events.FromReservation(uuid.NewString(), r, at)
	if !ok {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.publisher.Publish(pubCtx, evt); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("event", evt.Type).
			Int64("reservation_id", r.ID).
			Msg("Failed to publish reservation event")
	}
}

// SweepCompleted completes every confirmed reservation whose start time is
// not after now and returns how many it completed. Reservations cancelled
// while the sweep runs are skipped.
func (c *Coordinator) SweepCompleted(ctx context.Context, now time.Time) (int, error) {
	completed := 0
	for {
		due, err := c.ledger.ListDueForCompletion(ctx, now, sweepBatchSize)
		if err != nil {
			return completed, err
		}
		progressed := false
		for _, r := range due {
			if err := ctx.Err(); err != nil {
				return completed, err
			}
			_, err := c.complete(ctx, r.ID, now)
			switch {
			case err == nil:
				completed++
				progressed = true
			case errors.Is(err, apperr.ErrInvalidState):
				progressed = true
			default:
				return completed, fmt.Errorf("complete reservation %d: %w", r.ID, err)
			}
		}
		if len(due) < sweepBatchSize || !progressed {
			break
		}
	}

	if completed > 0 {
		log.Ctx(ctx).Info().Int("completed", completed).Msg("Completed past reservations")
	}
	return completed, nil
}

// Reservation returns reservationID when userID owns it.
func (c *Coordinator) Reservation(ctx context.Context, reservationID, userID int64) (reservations.Reservation, error) {
	r, err := c.ledger.Get(ctx, reservationID)
	if err != nil {
		return reservations.Reservation{}, err
	}
	if r.UserID != userID {
		return reservations.Reservation{}, fmt.Errorf("reservation %d belongs to another user: %w", reservationID, apperr.ErrPermission)
	}
	return r, nil
}

// History returns the status changes of reservationID, oldest first, when
// userID owns it.
func (c *Coordinator) History(ctx context.Context, reservationID, userID int64) ([]reservations.Transition, error) {
	if _, err := c.Reservation(ctx, reservationID, userID); err != nil {
		return nil, err
	}
	return c.ledger.Transitions(ctx, reservationID)
}

// MyReservations lists the reservations of userID narrowed by filter.
func (c *Coordinator) MyReservations(ctx context.Context, userID int64, filter reservations.Filter) ([]reservations.Reservation, error) {
	if userID <= 0 {
		return nil, apperr.Invalid("user_id", "must be a positive integer")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, apperr.Invalid("to", "must not be before from")
	}
	filter.UserID = userID
	return c.ledger.List(ctx, filter)
}

func slotKey(courtID int64, date time.Time, slot schedule.TimeOfDay) string {
	return fmt.Sprintf("slot:%d:%s:%s", courtID, schedule.FormatDate(date), slot)
}

func reservationKey(id int64) string {
	return fmt.Sprintf("reservation:%d", id)
}

func userDateKey(userID int64, date time.Time) string {
	return fmt.Sprintf("user:%d:%s", userID, schedule.FormatDate(date))
}
