// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes passed to IncLogin.
const (
	LoginSuccess = "success"
	LoginFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncUserDeleted()
	IncLogin(status string) // status: "success" or "failed"
	ObserveLoginDuration(duration time.Duration)

	// Session token metrics
	IncTokenRevoked()
	IncAuthRejected()

	// Todo metrics
	IncTodoCreated()
	IncTodoUpdated()
	IncTodoDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
