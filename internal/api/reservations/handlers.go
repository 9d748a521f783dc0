// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/booking"
	rsv "github.com/codr1/courtbook/internal/reservations"
	"github.com/codr1/courtbook/internal/schedule"
)

const reservationsQueryTimeout = 10 * time.Second

// Coordinator is the booking surface the handlers drive.
type Coordinator interface {
	Book(ctx context.Context, req booking.BookRequest) (rsv.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID int64) (rsv.Reservation, error)
	Reservation(ctx context.Context, reservationID, userID int64) (rsv.Reservation, error)
	MyReservations(ctx context.Context, userID int64, filter rsv.Filter) ([]rsv.Reservation, error)
	History(ctx context.Context, reservationID, userID int64) ([]rsv.Transition, error)
}

var (
	coordinator     Coordinator
	coordinatorOnce sync.Once
)

type createReservationRequest struct {
	CourtID int64  `json:"courtId"`
	Date    string `json:"date"`
	Slot    string `json:"slot"`
}

type reservationListResponse struct {
	Reservations []rsv.Reservation `json:"reservations"`
}

type transitionsResponse struct {
	ReservationID int64            `json:"reservationId"`
	Transitions   []rsv.Transition `json:"transitions"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(c Coordinator) {
	if c == nil {
		return
	}
	coordinatorOnce.Do(func() {
		coordinator = c
	})
}

// RegisterRoutes mounts the reservation routes. writeMiddleware wraps only
// the routes that change state.
func RegisterRoutes(mux *http.ServeMux, writeMiddleware ...func(http.Handler) http.Handler) {
	write := func(h http.HandlerFunc) http.Handler {
		var handler http.Handler = h
		for _, m := range writeMiddleware {
			handler = m(handler)
		}
		return handler
	}

	mux.Handle("POST /api/v1/reservations", write(HandleCreate))
	mux.HandleFunc("GET /api/v1/reservations/mine", HandleMine)
	mux.HandleFunc("GET /api/v1/reservations/mine.ics", HandleMineCalendar)
	mux.HandleFunc("GET /api/v1/reservations/{id}", HandleGet)
	mux.HandleFunc("GET /api/v1/reservations/{id}/transitions", HandleTransitions)
	mux.Handle("POST /api/v1/reservations/{id}/cancel", write(HandleCancel))
}

// POST /api/v1/reservations
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	c, ok := loadCoordinator(w, r)
	if !ok {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apperr.Invalid("body", err.Error()), "Failed to create reservation")
		return
	}
	bookReq, err := req.toBookRequest(user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to create reservation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	created, err := c.Book(ctx, bookReq)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to create reservation")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("reservation_id", created.ID).Msg("Failed to write reservation response")
	}
}

func (req createReservationRequest) toBookRequest(userID int64) (booking.BookRequest, error) {
	if req.CourtID <= 0 {
		return booking.BookRequest{}, apperr.Invalid("courtId", "must be a positive integer")
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return booking.BookRequest{}, apperr.Invalid("date", err.Error())
	}
	slot, err := schedule.ParseTimeOfDay(req.Slot)
	if err != nil {
		return booking.BookRequest{}, apperr.Invalid("slot", err.Error())
	}
	return booking.BookRequest{CourtID: req.CourtID, UserID: userID, Date: date, Slot: slot}, nil
}

// GET /api/v1/reservations/mine?from=&to=&status=&limit=&offset=
func HandleMine(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	items, err := c.MyReservations(ctx, user.ID, filter)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservations")
		return
	}
	if items == nil {
		items = []rsv.Reservation{}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, reservationListResponse{Reservations: items}); err != nil {
		logger.Error().Err(err).Msg("Failed to write reservations response")
	}
}

func filterFromQuery(r *http.Request) (rsv.Filter, error) {
	var filter rsv.Filter
	var err error

	if filter.From, err = apiutil.DateFromQuery(r, "from", false); err != nil {
		return rsv.Filter{}, err
	}
	if filter.To, err = apiutil.DateFromQuery(r, "to", false); err != nil {
		return rsv.Filter{}, err
	}

	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := rsv.ParseStatus(part)
			if err != nil {
				return rsv.Filter{}, apperr.Invalid("status", err.Error())
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if filter.Limit, err = optionalInt(query.Get("limit"), "limit"); err != nil {
		return rsv.Filter{}, err
	}
	if filter.Offset, err = optionalInt(query.Get("offset"), "offset"); err != nil {
		return rsv.Filter{}, err
	}
	return filter, nil
}

func optionalInt(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, apperr.Invalid(field, "must be 0 or greater")
	}
	return value, nil
}

// GET /api/v1/reservations/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	c, ok := loadCoordinator(w, r)
	if !ok {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	reservationID, err := apiutil.PathInt64(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	found, err := c.Reservation(ctx, reservationID, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservation")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, found); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to write reservation response")
	}
}

// GET /api/v1/reservations/{id}/transitions
func HandleTransitions(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	c, ok := loadCoordinator(w, r)
	if !ok {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	reservationID, err := apiutil.PathInt64(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservation history")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	history, err := c.History(ctx, reservationID, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load reservation history")
		return
	}
	resp := transitionsResponse{ReservationID: reservationID, Transitions: history}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to write reservation history response")
	}
}

// POST /api/v1/reservations/{id}/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	c, ok := loadCoordinator(w, r)
	if !ok {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	reservationID, err := apiutil.PathInt64(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to cancel reservation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	cancelled, err := c.Cancel(ctx, reservationID, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to cancel reservation")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, cancelled); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to write reservation response")
	}
}

func loadCoordinator(w http.ResponseWriter, r *http.Request) (Coordinator, bool) {
	if coordinator == nil {
		log.Ctx(r.Context()).Error().Msg("Booking coordinator not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return coordinator, true
}
