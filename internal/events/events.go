// Package events announces reservation state changes to other services.
package events

import (
	"context"
	"time"

	"github.com/codr1/courtbook/internal/reservations"
	"github.com/codr1/courtbook/internal/schedule"
)

// Routing keys on the topic exchange.
const (
	RKReservationConfirmed = "reservation.confirmed"
	RKReservationCancelled = "reservation.cancelled"
	RKReservationCompleted = "reservation.completed"
)

// Event is the payload published for each reservation change.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	CourtID       int64     `json:"court_id"`
	UserID        int64     `json:"user_id"`
	Date          string    `json:"date"`
	Slot          string    `json:"slot"`
	StartsAt      time.Time `json:"starts_at"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RoutingKey maps a reservation status to the key its change is published
// under. It returns false for statuses that are never announced.
func RoutingKey(status reservations.Status) (string, bool) {
	switch status {
	case reservations.StatusConfirmed:
		return RKReservationConfirmed, true
	case reservations.StatusCancelled:
		return RKReservationCancelled, true
	case reservations.StatusCompleted:
		return RKReservationCompleted, true
	default:
		return "", false
	}
}

// FromReservation builds the event for r having just entered its status.
func FromReservation(id string, r reservations.Reservation, at time.Time) (Event, bool) {
	key, ok := RoutingKey(r.Status)
	if !ok {
		return Event{}, false
	}
	return Event{
		ID:            id,
		Type:          key,
		ReservationID: r.ID,
		CourtID:       r.CourtID,
		UserID:        r.UserID,
		Date:          schedule.FormatDate(r.Date),
		Slot:          r.Slot.String(),
		StartsAt:      r.StartsAt.UTC(),
		Status:        string(r.Status),
		OccurredAt:    at.UTC(),
	}, true
}
