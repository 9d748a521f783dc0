package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codr1/courtbook/internal/db"
	dbq "github.com/codr1/courtbook/internal/db/queries"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts an active court owned by ownerUserID and returns its id.
func SeedCourt(t *testing.T, database *db.DB, ownerUserID int64) int64 {
	t.Helper()

	court, err := database.Queries.CreateCourt(context.Background(), dbq.CreateCourtParams{
		OwnerUserID: ownerUserID,
		Name:        "Court",
		Status:      "active",
	})
	if err != nil {
		t.Fatalf("insert court: %v", err)
	}
	return court.ID
}
