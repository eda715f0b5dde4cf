package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ninetyone/TodoApp/internal/auth"
	"github.com/ninetyone/TodoApp/internal/memstore"
	"github.com/ninetyone/TodoApp/internal/metrics"
)

var testParams = auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type testEnv struct {
	store   *memstore.Store
	creds   *CredentialService
	todos   *TodoService
	tokens  *auth.TokenService
	metrics *metrics.InMemoryRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memstore.New()
	rec := metrics.NewInMemory()

	tokens, err := auth.NewTokenService([]byte("test-secret"))
	require.NoError(t, err)

	creds, err := NewCredentialService(st, auth.NewHasher(testParams), tokens, rec)
	require.NoError(t, err)

	return &testEnv{
		store:   st,
		creds:   creds,
		todos:   NewTodoService(st, rec),
		tokens:  tokens,
		metrics: rec,
	}
}
