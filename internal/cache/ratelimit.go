package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitIPPrefix is the Redis key prefix for IP rate limits.
	rateLimitIPPrefix = "ratelimit:ip:"
	// rateLimitIPTTL is the TTL for IP rate limit keys.
	rateLimitIPTTL = 120 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// tokenBucketScript is a Lua script implementing the token bucket algorithm.
// It's atomic and handles token refill and consumption in a single operation.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter is a per-key token bucket shared by every instance through Redis.
type RedisLimiter struct {
	cache         *Cache
	ratePerSecond float64
	burst         int
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter refilling ratePerMinute tokens per minute
// up to burst.
func NewRedisLimiter(c *Cache, ratePerMinute, burst int) *RedisLimiter {
	return &RedisLimiter{
		cache:         c,
		ratePerSecond: float64(ratePerMinute) / 60.0,
		burst:         burst,
	}
}

// Allow checks and updates the bucket for a client IP.
// The key is hashed to avoid storing raw IP addresses.
func (l *RedisLimiter) Allow(ctx context.Context, ip string) (*RateLimitResult, error) {
	return l.cache.checkRateLimit(ctx, key(rateLimitIPPrefix, hashIP(ip)), l.ratePerSecond, l.burst, int(rateLimitIPTTL.Seconds()))
}

// checkRateLimit runs the token bucket script for bucket.
func (c *Cache) checkRateLimit(ctx context.Context, bucket string, rate float64, burst, ttl int) (*RateLimitResult, error) {
	now := time.Now()

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{bucket},
		rate, burst, now.Unix(), ttl,
	).Int64Slice()

	if err != nil {
		// Fail open on Redis errors - allow the request
		return &RateLimitResult{
			Allowed:   true,
			Limit:     burst,
			Remaining: int64(burst),
			ResetAt:   now.Add(time.Minute),
		}, err
	}

	allowed := result[0] == 1
	retryAfterSec := result[1]
	remaining := result[2]

	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  remaining,
		ResetAt:    now.Add(time.Duration(float64(time.Second) / rate)),
		RetryAfter: time.Duration(retryAfterSec) * time.Second,
	}, nil
}

// hashIP creates a truncated SHA256 hash of an IP address.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}

func retryAfter(tokens, ratePerSecond float64) time.Duration {
	if tokens >= 1 || ratePerSecond <= 0 {
		return 0
	}
	return time.Duration(math.Ceil((1-tokens)/ratePerSecond)) * time.Second
}
