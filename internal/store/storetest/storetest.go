// Package storetest holds the behavioural contract shared by every
// store.Store implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
	"github.com/ninetyone/TodoApp/internal/testutil"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises s against the full store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateUser", func(t *testing.T) { testCreateUser(t, newStore(t)) })
	t.Run("Tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("ConcurrentAppendToken", func(t *testing.T) { testConcurrentAppend(t, newStore(t)) })
	t.Run("DeleteUser", func(t *testing.T) { testDeleteUser(t, newStore(t)) })
	t.Run("CreateTodoUnknownCreator", func(t *testing.T) { testCreateTodoUnknownCreator(t, newStore(t)) })
	t.Run("TodoOwnership", func(t *testing.T) { testTodoOwnership(t, newStore(t)) })
	t.Run("UpdateTodo", func(t *testing.T) { testUpdateTodo(t, newStore(t)) })
}

func testCreateUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Empty(t, got.Tokens)

	got, err = s.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := testutil.NewTestUser(t)
	dup.Email = u.Email
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrDuplicateEmail)

	_, err = s.GetUserByID(ctx, dup.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTokens(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))

	first := model.Token{Access: model.PurposeAuth, Token: "token-one"}
	second := model.Token{Access: model.PurposeAuth, Token: "token-two"}

	_, err := s.GetUserByToken(ctx, u.ID, first)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.AppendToken(ctx, u.ID, first))
	require.NoError(t, s.AppendToken(ctx, u.ID, second))

	got, err := s.GetUserByToken(ctx, u.ID, first)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Len(t, got.Tokens, 2)

	_, err = s.GetUserByToken(ctx, u.ID, model.Token{Access: "reset", Token: "token-one"})
	assert.ErrorIs(t, err, store.ErrNotFound, "access must match")

	require.NoError(t, s.RemoveToken(ctx, u.ID, first.Token))
	_, err = s.GetUserByToken(ctx, u.ID, first)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByToken(ctx, u.ID, second)
	assert.NoError(t, err, "other sessions survive a logout")

	// Removing an absent token is not an error.
	assert.NoError(t, s.RemoveToken(ctx, u.ID, first.Token))

	assert.ErrorIs(t, s.AppendToken(ctx, "missing", first), store.ErrNotFound)
}

func testConcurrentAppend(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.AppendToken(ctx, u.ID, model.Token{
				Access: model.PurposeAuth,
				Token:  ulid.Make().String(),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tokens, n)
}

func testCreateTodoUnknownCreator(t *testing.T, s store.Store) {
	ctx := context.Background()
	missing := ulid.Make().String()

	err := s.CreateTodo(ctx, testutil.NewTestTodo(t, missing, "orphan"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	todos, err := s.ListTodos(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, todos)

	// A deleted creator is as unknown as one that never existed.
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	err = s.CreateTodo(ctx, testutil.NewTestTodo(t, u.ID, "late"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	todos, err = s.ListTodos(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func testDeleteUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))
	todo := testutil.NewTestTodo(t, u.ID, "owned")
	require.NoError(t, s.CreateTodo(ctx, todo))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTodo(ctx, todo.ID, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), store.ErrNotFound)

	// The address is free again.
	again := testutil.NewTestUser(t)
	again.Email = u.Email
	assert.NoError(t, s.CreateUser(ctx, again))
}

func testTodoOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner, other := testutil.NewTestUser(t), testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, owner))
	require.NoError(t, s.CreateUser(ctx, other))

	first := testutil.NewTestTodo(t, owner.ID, "first")
	second := testutil.NewTestTodo(t, owner.ID, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, s.CreateTodo(ctx, first))
	require.NoError(t, s.CreateTodo(ctx, second))

	list, err := s.ListTodos(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	list, err = s.ListTodos(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = s.GetTodo(ctx, first.ID, other.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	text := "hijacked"
	_, err = s.UpdateTodo(ctx, first.ID, other.ID, model.TodoPatch{Text: &text}, time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.DeleteTodo(ctx, first.ID, other.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetTodo(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)

	deleted, err := s.DeleteTodo(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, deleted.ID)

	_, err = s.DeleteTodo(ctx, first.ID, owner.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateTodo(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := testutil.NewTestUser(t)
	require.NoError(t, s.CreateUser(ctx, u))
	todo := testutil.NewTestTodo(t, u.ID, "write tests")
	require.NoError(t, s.CreateTodo(ctx, todo))

	yes, no := true, false
	text := "write more tests"
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := s.UpdateTodo(ctx, todo.ID, u.ID, model.TodoPatch{Completed: &yes}, t0)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, t0.Equal(*got.CompletedAt))

	// Completing again keeps the original timestamp.
	got, err = s.UpdateTodo(ctx, todo.ID, u.ID, model.TodoPatch{Completed: &yes, Text: &text}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, text, got.Text)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, t0.Equal(*got.CompletedAt))

	got, err = s.UpdateTodo(ctx, todo.ID, u.ID, model.TodoPatch{Completed: &no}, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)

	stored, err := s.GetTodo(ctx, todo.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, text, stored.Text)
	assert.False(t, stored.Completed)
	assert.Nil(t, stored.CompletedAt)

	_, err = s.UpdateTodo(ctx, ulid.Make().String(), u.ID, model.TodoPatch{Completed: &yes}, t0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
