package courts

import (
	"context"
	"errors"
	"testing"

	"github.com/codr1/courtbook/internal/apperr"
	"github.com/codr1/courtbook/internal/testutil"
)

func TestStore_CreateAndGet(t *testing.T) {
	store, err := NewStore(testutil.NewTestDB(t))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	court, err := store.Create(ctx, 9, "  Center Court ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if court.ID == 0 || court.Name != "Center Court" || court.Status != StatusActive {
		t.Fatalf("created: %+v", court)
	}

	got, err := store.Get(ctx, court.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != court {
		t.Fatalf("got %+v want %+v", got, court)
	}

	if _, err := store.Get(ctx, court.ID+1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Get(ctx, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStore_CreateValidates(t *testing.T) {
	store, err := NewStore(testutil.NewTestDB(t))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Create(ctx, 0, "Court"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("owner: expected validation error, got %v", err)
	}
	if _, err := store.Create(ctx, 1, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("name: expected validation error, got %v", err)
	}
}

func TestRequireOwner(t *testing.T) {
	store, err := NewStore(testutil.NewTestDB(t))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	court, err := store.Create(ctx, 9, "Court")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := RequireOwner(ctx, store, court.ID, 9); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := RequireOwner(ctx, store, court.ID, 10); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if _, err := RequireOwner(ctx, store, court.ID+5, 9); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
