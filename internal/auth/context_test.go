package auth

import (
	"context"
	"testing"

	"github.com/ninetyone/TodoApp/internal/model"
)

func TestIdentityFromContext(t *testing.T) {
	t.Parallel()

	if got := IdentityFromContext(context.Background()); got != nil {
		t.Fatalf("expected nil identity, got %+v", got)
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}

	id := &Identity{User: &model.User{ID: "u1", Email: "a@b.com"}, Token: "tok"}
	ctx := ContextWithIdentity(context.Background(), id)

	got := IdentityFromContext(ctx)
	if got != id {
		t.Fatalf("IdentityFromContext = %+v, want %+v", got, id)
	}
	if UserIDFromContext(ctx) != "u1" {
		t.Errorf("UserIDFromContext = %q, want u1", UserIDFromContext(ctx))
	}
}
