package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered      uint64
	UsersDeleted         uint64
	LoginsSucceeded      uint64
	LoginsFailed         uint64
	LoginDurationCount   uint64
	LoginDurationTotalNs int64
	TokensRevoked        uint64
	AuthRejected         uint64
	TodosCreated         uint64
	TodosUpdated         uint64
	TodosDeleted         uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is handy in tests.
type InMemoryRecorder struct {
	usersRegistered      atomic.Uint64
	usersDeleted         atomic.Uint64
	loginsSucceeded      atomic.Uint64
	loginsFailed         atomic.Uint64
	loginDurationCount   atomic.Uint64
	loginDurationTotalNs atomic.Int64
	tokensRevoked        atomic.Uint64
	authRejected         atomic.Uint64
	todosCreated         atomic.Uint64
	todosUpdated         atomic.Uint64
	todosDeleted         atomic.Uint64
}

var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:      m.usersRegistered.Load(),
		UsersDeleted:         m.usersDeleted.Load(),
		LoginsSucceeded:      m.loginsSucceeded.Load(),
		LoginsFailed:         m.loginsFailed.Load(),
		LoginDurationCount:   m.loginDurationCount.Load(),
		LoginDurationTotalNs: m.loginDurationTotalNs.Load(),
		TokensRevoked:        m.tokensRevoked.Load(),
		AuthRejected:         m.authRejected.Load(),
		TodosCreated:         m.todosCreated.Load(),
		TodosUpdated:         m.todosUpdated.Load(),
		TodosDeleted:         m.todosDeleted.Load(),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() { m.usersRegistered.Add(1) }

// IncUserDeleted increments the account deletion counter.
func (m *InMemoryRecorder) IncUserDeleted() { m.usersDeleted.Add(1) }

// IncLogin increments the login counter for status. Unknown statuses count as failures.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == LoginSuccess {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

// ObserveLoginDuration records how long a credential check took.
func (m *InMemoryRecorder) ObserveLoginDuration(duration time.Duration) {
	m.loginDurationCount.Add(1)
	m.loginDurationTotalNs.Add(duration.Nanoseconds())
}

// IncTokenRevoked increments the logout counter.
func (m *InMemoryRecorder) IncTokenRevoked() { m.tokensRevoked.Add(1) }

// IncAuthRejected increments the rejected request counter.
func (m *InMemoryRecorder) IncAuthRejected() { m.authRejected.Add(1) }

// IncTodoCreated increments todo created counter.
func (m *InMemoryRecorder) IncTodoCreated() { m.todosCreated.Add(1) }

// IncTodoUpdated increments todo updated counter.
func (m *InMemoryRecorder) IncTodoUpdated() { m.todosUpdated.Add(1) }

// IncTodoDeleted increments todo deleted counter.
func (m *InMemoryRecorder) IncTodoDeleted() { m.todosDeleted.Add(1) }
