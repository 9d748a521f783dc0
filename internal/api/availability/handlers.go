// internal/api/availability/handlers.go
package availability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/schedule"
)

const availabilityQueryTimeout = 5 * time.Second

// Resolver answers slot queries for a court and date.
type Resolver interface {
	AvailableSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error)
	OccupiedSlots(ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error)
}

var (
	resolver     Resolver
	resolverOnce sync.Once
)

type slotsResponse struct {
	CourtID int64                `json:"courtId"`
	Date    string               `json:"date"`
	Slots   []schedule.TimeOfDay `json:"slots"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(r Resolver) {
	if r == nil {
		return
	}
	resolverOnce.Do(func() {
		resolver = r
	})
}

func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/courts/{court_id}/availability", HandleAvailability)
	mux.HandleFunc("GET /api/v1/courts/{court_id}/occupied", HandleOccupied)
}

// GET /api/v1/courts/{court_id}/availability?date=YYYY-MM-DD
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	handleSlots(w, r, Resolver.AvailableSlots, "Failed to load availability")
}

// GET /api/v1/courts/{court_id}/occupied?date=YYYY-MM-DD
func HandleOccupied(w http.ResponseWriter, r *http.Request) {
	handleSlots(w, r, Resolver.OccupiedSlots, "Failed to load occupied slots")
}

type slotQuery func(res Resolver, ctx context.Context, courtID int64, date time.Time) ([]schedule.TimeOfDay, error)

func handleSlots(w http.ResponseWriter, r *http.Request, query slotQuery, failure string) {
	logger := log.Ctx(r.Context())

	res := resolver
	if res == nil {
		logger.Error().Msg("Availability resolver not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.PathInt64(r, "court_id")
	if err != nil {
		apiutil.WriteError(w, r, err, failure)
		return
	}
	date, err := apiutil.DateFromQuery(r, "date", true)
	if err != nil {
		apiutil.WriteError(w, r, err, failure)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	slots, err := query(res, ctx, courtID, date)
	if err != nil {
		apiutil.WriteError(w, r, err, failure)
		return
	}

	resp := slotsResponse{CourtID: courtID, Date: schedule.FormatDate(date), Slots: slots}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write slots response")
	}
}
