package handler

import (
	"fmt"
	"net/http"

	"github.com/ninetyone/TodoApp/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler. A nil snapshotter means
// metrics are disabled.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "todoapp_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "todoapp_users_deleted_total %d\n", snap.UsersDeleted)

	writeMetric(w, "todoapp_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "todoapp_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "todoapp_login_duration_seconds_count %d\n", snap.LoginDurationCount)
	writeMetric(w, "todoapp_login_duration_seconds_sum %.6f\n", float64(snap.LoginDurationTotalNs)/1e9)

	writeMetric(w, "todoapp_tokens_revoked_total %d\n", snap.TokensRevoked)
	writeMetric(w, "todoapp_auth_rejected_total %d\n", snap.AuthRejected)

	writeMetric(w, "todoapp_todos_created_total %d\n", snap.TodosCreated)
	writeMetric(w, "todoapp_todos_updated_total %d\n", snap.TodosUpdated)
	writeMetric(w, "todoapp_todos_deleted_total %d\n", snap.TodosDeleted)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
