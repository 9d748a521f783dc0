package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/codr1/courtbook/internal/db"
	dbq "github.com/codr1/courtbook/internal/db/queries"
	"github.com/codr1/courtbook/internal/testutil"
)

const insertReservation = `INSERT INTO reservations
	(court_id, user_id, reservation_date, slot_minute, starts_at, status, created_at, updated_at)
	VALUES (?, 1, '2030-03-04', 480, 0, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

func TestRunInTxRollsBackOnError(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var courtID int64
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		court, err := tx.Queries.CreateCourt(ctx, dbq.CreateCourtParams{OwnerUserID: 1, Name: "Center", Status: "active"})
		if err != nil {
			return err
		}
		courtID = court.ID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := database.Queries.GetCourt(ctx, courtID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected court rolled back, got %v", err)
	}
}

func TestRunInTxCommits(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	var courtID int64
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		court, err := tx.Queries.CreateCourt(ctx, dbq.CreateCourtParams{OwnerUserID: 1, Name: "Center", Status: "active"})
		courtID = court.ID
		return err
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}
	if _, err := database.Queries.GetCourt(ctx, courtID); err != nil {
		t.Fatalf("get committed court: %v", err)
	}
}

func TestConstraintClassification(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	courtID := testutil.SeedCourt(t, database, 1)

	if _, err := database.ExecContext(ctx, insertReservation, courtID, "confirmed"); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := database.ExecContext(ctx, insertReservation, courtID, "pending")
	if !db.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if db.IsForeignKeyViolation(err) {
		t.Fatalf("unique violation classified as foreign key")
	}

	// Cancelled rows are outside the partial index.
	if _, err := database.ExecContext(ctx, insertReservation, courtID, "cancelled"); err != nil {
		t.Fatalf("cancelled insert: %v", err)
	}

	_, err = database.ExecContext(ctx, insertReservation, courtID+99, "confirmed")
	if !db.IsForeignKeyViolation(err) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	if db.IsUniqueViolation(errors.New("plain")) || db.IsUniqueViolation(nil) {
		t.Fatalf("non sqlite errors must not classify")
	}
}
