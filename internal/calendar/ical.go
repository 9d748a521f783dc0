// Package calendar renders reservations as an iCalendar feed.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/codr1/courtbook/internal/reservations"
)

const (
	productID     = "-//courtbook//reservations//EN"
	DefaultLength = time.Hour
)

// LengthFunc returns how long a reservation lasts.
type LengthFunc func(r reservations.Reservation) time.Duration

// Encode builds a VCALENDAR with one VEVENT per reservation. Cancelled
// reservations are kept with STATUS:CANCELLED so subscribed clients drop
// them.
func Encode(host string, rs []reservations.Reservation, length LengthFunc, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Court reservations")

	for _, r := range rs {
		d := DefaultLength
		if length != nil {
			if got := length(r); got > 0 {
				d = got
			}
		}

		event := cal.AddEvent(fmt.Sprintf("reservation-%d@%s", r.ID, host))
		event.SetDtStampTime(stamp.UTC())
		event.SetCreatedTime(r.CreatedAt.UTC())
		event.SetModifiedAt(r.UpdatedAt.UTC())
		event.SetStartAt(r.StartsAt.UTC())
		event.SetEndAt(r.StartsAt.Add(d).UTC())
		event.SetSummary(fmt.Sprintf("Court %d reservation", r.CourtID))
		event.SetStatus(eventStatus(r.Status))
	}
	return cal.Serialize()
}

func eventStatus(s reservations.Status) ics.ObjectStatus {
	switch s {
	case reservations.StatusPending:
		return ics.ObjectStatusTentative
	case reservations.StatusCancelled:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusConfirmed
	}
}
