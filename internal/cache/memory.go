package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleClientTTL is how long an unused bucket is kept.
const idleClientTTL = 3 * time.Minute

// MemoryLimiter is a per-key token bucket kept in process memory. It is used
// when no Redis is configured, so limits are per instance.
type MemoryLimiter struct {
	ratePerSecond float64
	burst         int
	now           func() time.Time

	mu        sync.Mutex
	clients   map[string]*memoryClient
	lastSweep time.Time
}

type memoryClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates a limiter refilling ratePerMinute tokens per minute
// up to burst.
func NewMemoryLimiter(ratePerMinute, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		ratePerSecond: float64(ratePerMinute) / 60.0,
		burst:         burst,
		now:           time.Now,
		clients:       make(map[string]*memoryClient),
	}
}

// Allow takes one token from key's bucket if available.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &memoryClient{limiter: rate.NewLimiter(rate.Limit(l.ratePerSecond), l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	allowed := c.limiter.AllowN(now, 1)
	tokens := c.limiter.TokensAt(now)

	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     l.burst,
		Remaining: int64(tokens),
		ResetAt:   now.Add(time.Duration(float64(time.Second) / l.ratePerSecond)),
	}
	if !allowed {
		res.RetryAfter = retryAfter(tokens, l.ratePerSecond)
	}
	return res, nil
}

// sweep drops idle buckets at most once per idleClientTTL. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleClientTTL {
		return
	}
	l.lastSweep = now
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= idleClientTTL {
			delete(l.clients, key)
		}
	}
}

// Len reports how many buckets are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
