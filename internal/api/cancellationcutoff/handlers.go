// internal/api/cancellationcutoff/handlers.go
package cancellationcutoff

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/courts"
)

const cutoffQueryTimeout = 5 * time.Second

// CutoffStore reads and overrides the cancellation cutoff of a court.
type CutoffStore interface {
	CancellationCutoff(ctx context.Context, courtID int64) (time.Duration, error)
	SetCutoff(ctx context.Context, courtID int64, cutoff time.Duration) error
	ClearCutoff(ctx context.Context, courtID int64) error
}

var (
	store     CutoffStore
	catalog   courts.Catalog
	storeOnce sync.Once
)

type cutoffRequest struct {
	CutoffMinutes *int64 `json:"cutoffMinutes"`
}

type cutoffResponse struct {
	CourtID       int64 `json:"courtId"`
	CutoffMinutes int64 `json:"cutoffMinutes"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s CutoffStore, c courts.Catalog) {
	if s == nil || c == nil {
		return
	}
	storeOnce.Do(func() {
		store = s
		catalog = c
	})
}

func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/courts/{court_id}/cancellation-cutoff", HandleGet)
	mux.HandleFunc("PUT /api/v1/courts/{court_id}/cancellation-cutoff", HandleSet)
	mux.HandleFunc("DELETE /api/v1/courts/{court_id}/cancellation-cutoff", HandleClear)
}

// GET /api/v1/courts/{court_id}/cancellation-cutoff
func HandleGet(w http.ResponseWriter, r *http.Request) {
	s, c, ok := loadStore(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathInt64(r, "court_id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load cancellation cutoff")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cutoffQueryTimeout)
	defer cancel()

	if _, err := c.Get(ctx, courtID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to load cancellation cutoff")
		return
	}
	writeCutoff(ctx, w, r, s, courtID)
}

// PUT /api/v1/courts/{court_id}/cancellation-cutoff
func HandleSet(w http.ResponseWriter, r *http.Request) {
	s, c, ok := loadStore(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cutoffQueryTimeout)
	defer cancel()

	courtID, ok := requireCourtOwner(ctx, w, r, c)
	if !ok {
		return
	}

	var req cutoffRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apperr.Invalid("body", err.Error()), "Failed to update cancellation cutoff")
		return
	}
	if req.CutoffMinutes == nil {
		apiutil.WriteError(w, r, apperr.Invalid("cutoffMinutes", "is required"), "Failed to update cancellation cutoff")
		return
	}
	if *req.CutoffMinutes < 0 {
		apiutil.WriteError(w, r, apperr.Invalid("cutoffMinutes", "must not be negative"), "Failed to update cancellation cutoff")
		return
	}

	if err := s.SetCutoff(ctx, courtID, time.Duration(*req.CutoffMinutes)*time.Minute); err != nil {
		apiutil.WriteError(w, r, err, "Failed to update cancellation cutoff")
		return
	}
	writeCutoff(ctx, w, r, s, courtID)
}

// DELETE /api/v1/courts/{court_id}/cancellation-cutoff
// Drops the court override; the response carries the default now in force.
func HandleClear(w http.ResponseWriter, r *http.Request) {
	s, c, ok := loadStore(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cutoffQueryTimeout)
	defer cancel()

	courtID, ok := requireCourtOwner(ctx, w, r, c)
	if !ok {
		return
	}
	if err := s.ClearCutoff(ctx, courtID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to clear cancellation cutoff")
		return
	}
	log.Ctx(ctx).Info().Int64("court_id", courtID).Msg("Cancellation cutoff cleared")
	writeCutoff(ctx, w, r, s, courtID)
}

func requireCourtOwner(ctx context.Context, w http.ResponseWriter, r *http.Request, c courts.Catalog) (int64, bool) {
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return 0, false
	}
	courtID, err := apiutil.PathInt64(r, "court_id")
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to update cancellation cutoff")
		return 0, false
	}
	if _, err := courts.RequireOwner(ctx, c, courtID, user.ID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to update cancellation cutoff")
		return 0, false
	}
	return courtID, true
}

func writeCutoff(ctx context.Context, w http.ResponseWriter, r *http.Request, s CutoffStore, courtID int64) {
	cutoff, err := s.CancellationCutoff(ctx, courtID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load cancellation cutoff")
		return
	}
	resp := cutoffResponse{CourtID: courtID, CutoffMinutes: int64(cutoff / time.Minute)}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("court_id", courtID).Msg("Failed to write cancellation cutoff response")
	}
}

func loadStore(w http.ResponseWriter, r *http.Request) (CutoffStore, courts.Catalog, bool) {
	if store == nil || catalog == nil {
		log.Ctx(r.Context()).Error().Msg("Cancellation cutoff store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	return store, catalog, true
}
