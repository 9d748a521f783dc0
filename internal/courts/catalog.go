// Package courts exposes the court catalog the booking core consults for
// existence and ownership checks.
package courts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/db"
	dbq "github.com/codr1/courtbook/internal/db/queries"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Court struct {
	ID          int64  `json:"id"`
	OwnerUserID int64  `json:"ownerUserId"`
	Name        string `json:"name"`
	Status      string `json:"status"`
}

// Catalog resolves courts by id. Get returns an error matching
// apperr.ErrNotFound for unknown courts.
type Catalog interface {
	Get(ctx context.Context, courtID int64) (Court, error)
}

// RequireOwner returns the court when userID owns it.
func RequireOwner(ctx context.Context, catalog Catalog, courtID, userID int64) (Court, error) {
	court, err := catalog.Get(ctx, courtID)
	if err != nil {
		return Court{}, err
	}
	if court.OwnerUserID != userID {
		return Court{}, fmt.Errorf("court %d is not owned by user %d: %w", courtID, userID, apperr.ErrPermission)
	}
	return court, nil
}

// Store is the SQLite-backed catalog.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) (*Store, error) {
	if database == nil {
		return nil, errors.New("court store requires a database")
	}
	return &Store{db: database}, nil
}

func (s *Store) Get(ctx context.Context, courtID int64) (Court, error) {
	if courtID <= 0 {
		return Court{}, apperr.Invalid("court_id", "must be a positive integer")
	}
	row, err := s.db.Queries.GetCourt(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Court{}, fmt.Errorf("court %d: %w", courtID, apperr.ErrNotFound)
		}
		return Court{}, fmt.Errorf("get court %d: %w", courtID, err)
	}
	return fromRow(row), nil
}

// Create registers a court. Court management proper belongs to the catalog
// service; this exists for seeding and tests.
func (s *Store) Create(ctx context.Context, ownerUserID int64, name string) (Court, error) {
	name = strings.TrimSpace(name)
	if ownerUserID <= 0 {
		return Court{}, apperr.Invalid("owner_user_id", "must be a positive integer")
	}
	if name == "" {
		return Court{}, apperr.Invalid("name", "is required")
	}
	row, err := s.db.Queries.CreateCourt(ctx, dbq.CreateCourtParams{
		OwnerUserID: ownerUserID,
		Name:        name,
		Status:      StatusActive,
	})
	if err != nil {
		return Court{}, fmt.Errorf("create court: %w", err)
	}
	return fromRow(row), nil
}

func fromRow(row dbq.Court) Court {
	return Court{
		ID:          row.ID,
		OwnerUserID: row.OwnerUserID,
		Name:        row.Name,
		Status:      row.Status,
	}
}
