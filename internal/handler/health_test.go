package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func serveReadyz(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec.Code, response
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name       string
		store      HealthChecker
		cache      HealthChecker
		wantStatus int
		wantStore  string
		wantRedis  string
	}{
		{
			name:       "all healthy",
			store:      &mockHealthChecker{},
			cache:      &mockHealthChecker{},
			wantStatus: http.StatusOK,
			wantStore:  "ok",
			wantRedis:  "ok",
		},
		{
			name:       "redis not configured",
			store:      &mockHealthChecker{},
			wantStatus: http.StatusOK,
			wantStore:  "ok",
			wantRedis:  "not configured",
		},
		{
			name:       "store unhealthy",
			store:      &mockHealthChecker{err: down},
			cache:      &mockHealthChecker{},
			wantStatus: http.StatusServiceUnavailable,
			wantStore:  "error: connection refused",
			wantRedis:  "ok",
		},
		{
			name:       "redis unhealthy",
			store:      &mockHealthChecker{},
			cache:      &mockHealthChecker{err: down},
			wantStatus: http.StatusServiceUnavailable,
			wantStore:  "ok",
			wantRedis:  "error: connection refused",
		},
		{
			name:       "store missing",
			wantStatus: http.StatusServiceUnavailable,
			wantStore:  "not configured",
			wantRedis:  "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serveReadyz(t, NewHealthHandler(tt.store, tt.cache))

			if code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, code)
			}
			if resp.Checks["store"] != tt.wantStore {
				t.Errorf("expected store check %q, got %q", tt.wantStore, resp.Checks["store"])
			}
			if resp.Checks["redis"] != tt.wantRedis {
				t.Errorf("expected redis check %q, got %q", tt.wantRedis, resp.Checks["redis"])
			}
			wantBody := "ok"
			if tt.wantStatus != http.StatusOK {
				wantBody = "unhealthy"
			}
			if resp.Status != wantBody {
				t.Errorf("expected status %q, got %q", wantBody, resp.Status)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "metrics@example.com", "pw")
	api.createTodo(t, token, "count me")

	rec := api.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, line := range []string{
		"todoapp_users_registered_total 1",
		"todoapp_todos_created_total 1",
		`todoapp_logins_total{status="failed"} 0`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("metrics output missing %q:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_Disabled(t *testing.T) {
	h := NewMetricsHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Metrics(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
