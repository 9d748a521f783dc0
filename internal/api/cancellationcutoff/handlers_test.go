package cancellationcutoff

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/courtbook/internal/api/authz"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/policy"
	"github.com/codr1/courtbook/internal/testutil"
)

const ownerID int64 = 5

func setupCutoffTest(t *testing.T) (*http.ServeMux, int64) {
	t.Helper()

	database := testutil.NewTestDB(t)
	courtID := testutil.SeedCourt(t, database, ownerID)

	courtStore, err := courts.NewStore(database)
	if err != nil {
		t.Fatalf("court store: %v", err)
	}
	overrides, err := policy.NewCourtOverrides(database, 2*time.Hour)
	if err != nil {
		t.Fatalf("court overrides: %v", err)
	}

	store = nil
	catalog = nil
	storeOnce = sync.Once{}
	InitHandlers(overrides, courtStore)
	t.Cleanup(func() {
		store = nil
		catalog = nil
		storeOnce = sync.Once{}
	})

	mux := http.NewServeMux()
	RegisterRoutes(mux)
	return mux, courtID
}

func send(mux *http.ServeMux, method string, courtID, userID int64, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, fmt.Sprintf("/api/v1/courts/%d/cancellation-cutoff", courtID), strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: userID}))
	}
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	return recorder
}

func decodeCutoff(t *testing.T, recorder *httptest.ResponseRecorder) cutoffResponse {
	t.Helper()
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp cutoffResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestCutoffOverrideLifecycle(t *testing.T) {
	mux, courtID := setupCutoffTest(t)

	if got := decodeCutoff(t, send(mux, http.MethodGet, courtID, 0, "")); got.CutoffMinutes != 120 {
		t.Fatalf("default cutoff: %+v", got)
	}

	got := decodeCutoff(t, send(mux, http.MethodPut, courtID, ownerID, `{"cutoffMinutes":30}`))
	if got.CourtID != courtID || got.CutoffMinutes != 30 {
		t.Fatalf("after set: %+v", got)
	}
	if got := decodeCutoff(t, send(mux, http.MethodGet, courtID, 0, "")); got.CutoffMinutes != 30 {
		t.Fatalf("read back: %+v", got)
	}

	if got := decodeCutoff(t, send(mux, http.MethodPut, courtID, ownerID, `{"cutoffMinutes":0}`)); got.CutoffMinutes != 0 {
		t.Fatalf("zero cutoff: %+v", got)
	}

	if got := decodeCutoff(t, send(mux, http.MethodDelete, courtID, ownerID, "")); got.CutoffMinutes != 120 {
		t.Fatalf("after clear: %+v", got)
	}
}

func TestHandleSet_Errors(t *testing.T) {
	mux, courtID := setupCutoffTest(t)

	tests := []struct {
		name    string
		method  string
		courtID int64
		userID  int64
		body    string
		want    int
	}{
		{"unauthenticated", http.MethodPut, courtID, 0, `{"cutoffMinutes":30}`, http.StatusUnauthorized},
		{"not owner", http.MethodPut, courtID, ownerID + 1, `{"cutoffMinutes":30}`, http.StatusForbidden},
		{"not owner with malformed json", http.MethodPut, courtID, ownerID + 1, `{"cutoff`, http.StatusForbidden},
		{"unknown court", http.MethodPut, courtID + 10, ownerID, `{"cutoffMinutes":30}`, http.StatusNotFound},
		{"negative", http.MethodPut, courtID, ownerID, `{"cutoffMinutes":-5}`, http.StatusBadRequest},
		{"missing value", http.MethodPut, courtID, ownerID, `{}`, http.StatusBadRequest},
		{"unknown field", http.MethodPut, courtID, ownerID, `{"cutoffHours":2}`, http.StatusBadRequest},
		{"clear by non owner", http.MethodDelete, courtID, ownerID + 1, "", http.StatusForbidden},
		{"read unknown court", http.MethodGet, courtID + 10, 0, "", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := send(mux, tc.method, tc.courtID, tc.userID, tc.body)
			if recorder.Code != tc.want {
				t.Fatalf("status: got %d want %d body: %s", recorder.Code, tc.want, recorder.Body.String())
			}
		})
	}

	if got := decodeCutoff(t, send(mux, http.MethodGet, courtID, 0, "")); got.CutoffMinutes != 120 {
		t.Fatalf("rejected writes changed the cutoff: %+v", got)
	}
}

func TestHandlers_NotInitialized(t *testing.T) {
	store = nil
	catalog = nil
	storeOnce = sync.Once{}

	mux := http.NewServeMux()
	RegisterRoutes(mux)
	if recorder := send(mux, http.MethodGet, 1, 0, ""); recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", recorder.Code)
	}
}
