package schedulewindows

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/codr1/courtbook/internal/api/authz"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/schedule"
	"github.com/codr1/courtbook/internal/testutil"
)

const ownerID int64 = 5

func setupScheduleTest(t *testing.T) (*http.ServeMux, int64) {
	t.Helper()

	database := testutil.NewTestDB(t)
	courtID := testutil.SeedCourt(t, database, ownerID)

	courtStore, err := courts.NewStore(database)
	if err != nil {
		t.Fatalf("court store: %v", err)
	}
	windows, err := schedule.NewStore(database, courtStore)
	if err != nil {
		t.Fatalf("schedule store: %v", err)
	}

	store = nil
	catalog = nil
	storeOnce = sync.Once{}
	InitHandlers(windows, courtStore)
	t.Cleanup(func() {
		store = nil
		catalog = nil
		storeOnce = sync.Once{}
	})

	mux := http.NewServeMux()
	RegisterRoutes(mux)
	return mux, courtID
}

func put(mux *http.ServeMux, courtID, userID int64, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/courts/%d/schedule-windows", courtID), strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: userID}))
	}
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleReplaceAndList(t *testing.T) {
	mux, courtID := setupScheduleTest(t)

	body := `{"windows":[
		{"dia_semana":"lunes","hora_inicio":"08:00","hora_fin":"10:00","intervalo_minutos":60},
		{"days":["saturday","sunday"],"start":"09:00","end":"12:00","granularity":90}
	]}`
	recorder := put(mux, courtID, ownerID, body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/courts/%d/schedule-windows", courtID), nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status: %d", recorder.Code)
	}
	var listed windowsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Windows) != 3 {
		t.Fatalf("windows: %+v", listed.Windows)
	}
}

func TestHandleReplace_Errors(t *testing.T) {
	mux, courtID := setupScheduleTest(t)
	valid := `{"windows":[{"dayOfWeek":"monday","start":"08:00","end":"10:00"}]}`

	tests := []struct {
		name    string
		courtID int64
		userID  int64
		body    string
		want    int
	}{
		{"unauthenticated", courtID, 0, valid, http.StatusUnauthorized},
		{"not owner", courtID, ownerID + 1, valid, http.StatusForbidden},
		{"unknown court", courtID + 10, ownerID, valid, http.StatusNotFound},
		{"end before start", courtID, ownerID, `{"windows":[{"dayOfWeek":"monday","start":"10:00","end":"08:00"}]}`, http.StatusBadRequest},
		{"granularity below minimum", courtID, ownerID, `{"windows":[{"dayOfWeek":"monday","start":"08:00","end":"10:00","granularity":15}]}`, http.StatusBadRequest},
		{"malformed json", courtID, ownerID, `{"windows":`, http.StatusBadRequest},
		{"not owner with malformed json", courtID, ownerID + 1, `{"windows":`, http.StatusForbidden},
		{"not owner with invalid window", courtID, ownerID + 1, `{"windows":[{"dayOfWeek":"monday","start":"10:00","end":"08:00"}]}`, http.StatusForbidden},
		{"unknown court with malformed json", courtID + 10, ownerID, `{"windows":`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := put(mux, tc.courtID, tc.userID, tc.body)
			if recorder.Code != tc.want {
				t.Fatalf("status: got %d want %d body: %s", recorder.Code, tc.want, recorder.Body.String())
			}
		})
	}
}
