//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
	"github.com/ninetyone/TodoApp/internal/store/storetest"
	"github.com/ninetyone/TodoApp/internal/testutil"
)

func TestIntegrationRepository_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		_, repo := newTestEnv(t)
		return repo
	})
}

func TestIntegrationRepository_TokenRowsCascade(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := repo.AppendToken(ctx, user.ID, tokenEntry("t1")); err != nil {
		t.Fatalf("AppendToken failed: %v", err)
	}

	if err := repo.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	var n int
	err := repo.Pool().QueryRow(ctx, `SELECT count(*) FROM user_tokens WHERE user_id = $1`, user.ID).Scan(&n)
	if err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if n != 0 {
		t.Errorf("token rows after delete = %d, want 0", n)
	}
}

func TestIntegrationRepository_AppendTokenTwice(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.AppendToken(ctx, user.ID, tokenEntry("same")); err != nil {
			t.Fatalf("AppendToken #%d failed: %v", i+1, err)
		}
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if len(got.Tokens) != 1 {
		t.Errorf("tokens = %d, want 1", len(got.Tokens))
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, dbURL); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

func tokenEntry(token string) model.Token {
	return model.Token{Access: model.PurposeAuth, Token: token}
}
