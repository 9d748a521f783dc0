package reservations

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/calendar"
	rsv "github.com/codr1/courtbook/internal/reservations"
	"github.com/codr1/courtbook/internal/schedule"
)

// SlotLengths reports how long a booked slot lasts.
type SlotLengths interface {
	SlotLength(ctx context.Context, courtID int64, date time.Time, slot schedule.TimeOfDay) (time.Duration, error)
}

var (
	slotLengths     SlotLengths
	slotLengthsOnce sync.Once
)

// InitCalendar sets the slot length source for the iCalendar feed. Without
// it every event lasts calendar.DefaultLength.
func InitCalendar(s SlotLengths) {
	if s == nil {
		return
	}
	slotLengthsOnce.Do(func() {
		slotLengths = s
	})
}

// GET /api/v1/reservations/mine.ics?from=&to=&status=
func HandleMineCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	c, ok := loadCoordinator(w, r)
	if !ok {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservations")
		return
	}
	if filter.Limit == 0 {
		filter.Limit = rsv.MaxListLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	items, err := c.MyReservations(ctx, user.ID, filter)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservations")
		return
	}

	lengths := slotLengths
	length := func(res rsv.Reservation) time.Duration {
		if lengths == nil {
			return 0
		}
		d, err := lengths.SlotLength(ctx, res.CourtID, res.Date, res.Slot)
		if err != nil {
			// Schedule changed since booking.
			logger.Debug().Err(err).Int64("reservation_id", res.ID).Msg("Slot length unknown")
			return 0
		}
		return d
	}

	body := calendar.Encode(r.Host, items, length, time.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error().Err(err).Msg("Failed to write calendar response")
	}
}
