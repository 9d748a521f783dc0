package authz

import (
	"context"
	"errors"
	"testing"
)

func TestUserFromContext(t *testing.T) {
	if UserFromContext(context.Background()) != nil {
		t.Fatalf("expected nil user for empty context")
	}

	ctx := ContextWithUser(context.Background(), &AuthUser{ID: 9})
	user := UserFromContext(ctx)
	if user == nil || user.ID != 9 {
		t.Fatalf("user: %+v", user)
	}
}

func TestRequireUser(t *testing.T) {
	if _, err := RequireUser(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := RequireUser(ContextWithUser(context.Background(), &AuthUser{})); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for zero id, got %v", err)
	}
	user, err := RequireUser(ContextWithUser(context.Background(), &AuthUser{ID: 3}))
	if err != nil || user.ID != 3 {
		t.Fatalf("require user: %+v, %v", user, err)
	}
}
