package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninetyone/TodoApp/internal/cache"
	"github.com/ninetyone/TodoApp/internal/handler/dto"
)

func TestUserHandler_Register(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/user", "", dto.CredentialsRequest{
		Email:    "ada@example.com",
		Password: "correct horse",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("x-auth"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "tokens")
}

func TestUserHandler_RegisterRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
		code string
	}{
		{"malformed json", `{"email":`, "INVALID_JSON"},
		{"missing email", dto.CredentialsRequest{Password: "pw"}, "INVALID_INPUT"},
		{"bad email", dto.CredentialsRequest{Email: "not-an-email", Password: "pw"}, "INVALID_INPUT"},
		{"blank password", dto.CredentialsRequest{Email: "a@example.com", Password: "   "}, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := newTestAPI(t)

			rec := api.do(t, http.MethodPost, "/user", "", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, rec.Header().Get("x-auth"))
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestUserHandler_DuplicateRegistration(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	first, _ := api.register(t, "dup@example.com", "first")

	rec := api.do(t, http.MethodPost, "/user", "", dto.CredentialsRequest{
		Email:    "dup@example.com",
		Password: "second",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("x-auth"))
	assert.Equal(t, "DUPLICATE_EMAIL", decodeError(t, rec).Code)

	// The first account still signs in with its own password.
	rec = api.do(t, http.MethodPost, "/user/login", "", dto.CredentialsRequest{
		Email:    "dup@example.com",
		Password: "first",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), api.metrics.Snapshot().UsersRegistered)

	stored, err := api.store.GetUserByEmail(context.Background(), "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
}

func TestUserHandler_Login(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	registered, first := api.register(t, "grace@example.com", "hunter2")

	rec := api.do(t, http.MethodPost, "/user/login", "", dto.CredentialsRequest{
		Email:    "grace@example.com",
		Password: "hunter2",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	second := rec.Header().Get("x-auth")
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, registered, user)

	// Both sessions are usable.
	for _, tok := range []string{first, second} {
		rec = api.do(t, http.MethodGet, "/user/me", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestUserHandler_LoginFailuresAreUniform(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	api.register(t, "known@example.com", "right")

	var bodies []string
	for _, creds := range []dto.CredentialsRequest{
		{Email: "known@example.com", Password: "wrong"},
		{Email: "unknown@example.com", Password: "right"},
	} {
		rec := api.do(t, http.MethodPost, "/user/login", "", creds)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, rec.Header().Get("x-auth"))
		assert.Equal(t, "AUTH_FAILURE", decodeError(t, rec).Code)
		bodies = append(bodies, rec.Body.String())
	}

	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, uint64(2), api.metrics.Snapshot().LoginsFailed)
}

func TestUserHandler_Me(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	user, token := api.register(t, "me@example.com", "pw")

	rec := api.do(t, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, user, got)
}

func TestUserHandler_Unauthenticated(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	_, token := api.register(t, "x@example.com", "pw")
	tampered := token[:len(token)-2] + "xx"

	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage", "not-a-token"},
		{"bad signature", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/user/me", tt.token, nil)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestUserHandler_LogoutRevokesOnlyPresentedToken(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	_, first := api.register(t, "multi@example.com", "pw")
	rec := api.do(t, http.MethodPost, "/user/login", "", dto.CredentialsRequest{
		Email:    "multi@example.com",
		Password: "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	second := rec.Header().Get("x-auth")

	rec = api.do(t, http.MethodDelete, "/user/me/token", first, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/user/me", first, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/user/me", second, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A revoked token cannot log out twice.
	rec = api.do(t, http.MethodDelete, "/user/me/token", first, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_DeleteMe(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	user, token := api.register(t, "gone@example.com", "pw")
	rec := api.do(t, http.MethodPost, "/todo", token, dto.CreateTodoRequest{Text: "orphan"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/todos", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	todos, err := api.store.ListTodos(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)

	// The email is free again.
	api.register(t, "gone@example.com", "pw")
}

func TestUserHandler_CredentialEndpointsAreRateLimited(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, withLimiter(cache.NewMemoryLimiter(60, 2)))

	creds := dto.CredentialsRequest{Email: "who@example.com", Password: "pw"}
	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodPost, "/user/login", "", creds)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := api.do(t, http.MethodPost, "/user/login", "", creds)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)

	// Authenticated routes are not throttled.
	rec = api.do(t, http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	t.Parallel()

	login := func(api *testAPI, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/user/login",
			strings.NewReader(`{"email":"who@example.com","password":"pw"}`))
		req.RemoteAddr = "192.0.2.10:41000"
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("untrusted by default", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, withLimiter(cache.NewMemoryLimiter(60, 2)))

		assert.Equal(t, http.StatusBadRequest, login(api, "203.0.113.1"))
		assert.Equal(t, http.StatusBadRequest, login(api, "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, login(api, "203.0.113.3"))
	})

	t.Run("trusted behind a proxy", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, withLimiter(cache.NewMemoryLimiter(60, 2)), func(c *RouterConfig) {
			c.TrustProxyHeaders = true
		})

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusBadRequest, login(api, "203.0.113.1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, login(api, "203.0.113.1"))
		assert.Equal(t, http.StatusBadRequest, login(api, "203.0.113.2"))
	})
}

func TestUserHandler_BodyTooLarge(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, func(c *RouterConfig) { c.MaxRequestBodySize = 64 })

	body := `{"email":"a@example.com","password":"` + strings.Repeat("p", 128) + `"}`
	rec := api.do(t, http.MethodPost, "/user", "", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
