package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninetyone/TodoApp/internal/store"
	"github.com/ninetyone/TodoApp/internal/store/storetest"
	"github.com/ninetyone/TodoApp/internal/testutil"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.Email = "changed@example.com"

	again, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, again.Email)
}
