// internal/api/schedulewindows/handlers.go
package schedulewindows

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/schedule"
)

const scheduleQueryTimeout = 5 * time.Second

// WindowStore reads and replaces the schedule of a court.
type WindowStore interface {
	ListWindows(ctx context.Context, courtID int64) ([]schedule.Window, error)
	SetWindows(ctx context.Context, courtID, ownerUserID int64, windows []schedule.Window) ([]schedule.Window, error)
}

var (
	store     WindowStore
	catalog   courts.Catalog
	storeOnce sync.Once
)

type replaceWindowsRequest struct {
	Windows []schedule.RawWindow `json:"windows"`
}

type windowsResponse struct {
	CourtID int64             `json:"courtId"`
	Windows []schedule.Window `json:"windows"`
}

// InitHandlers must be called during server startup before handling requests.
// The catalog authorizes writes before their body is looked at.
func InitHandlers(s WindowStore, c courts.Catalog) {
	if s == nil || c == nil {
		return
	}
	storeOnce.Do(func() {
		store = s
		catalog = c
	})
}

func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/courts/{court_id}/schedule-windows", HandleList)
	mux.HandleFunc("PUT /api/v1/courts/{court_id}/schedule-windows", HandleReplace)
}

// GET /api/v1/courts/{court_id}/schedule-windows
func HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := store
	if s == nil {
		logger.Error().Msg("Schedule store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.PathInt64(r, "court_id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load schedule")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	windows, err := s.ListWindows(ctx, courtID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load schedule")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, windowsResponse{CourtID: courtID, Windows: windows}); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write schedule response")
	}
}

// PUT /api/v1/courts/{court_id}/schedule-windows
func HandleReplace(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s, c := store, catalog
	if s == nil || c == nil {
		logger.Error().Msg("Schedule store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	courtID, err := apiutil.PathInt64(r, "court_id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to update schedule")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	if _, err := courts.RequireOwner(ctx, c, courtID, user.ID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to update schedule")
		return
	}

	var req replaceWindowsRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apperr.Invalid("body", err.Error()), "Failed to update schedule")
		return
	}
	windows, err := schedule.Normalize(courtID, req.Windows)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to update schedule")
		return
	}

	saved, err := s.SetWindows(ctx, courtID, user.ID, windows)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to update schedule")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, windowsResponse{CourtID: courtID, Windows: saved}); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write schedule response")
	}
}
