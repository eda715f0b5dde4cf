// Package cache provides the Redis client and the request rate limiters built
// on it. Session tokens are never cached here: revocation must take effect on
// the next request.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyNamespace prefixes every key this service writes, so a shared Redis can
// host other tenants.
const keyNamespace = "todoapp:"

// Cache wraps a pooled Redis client.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection. The client is closed
// again if the first ping fails.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// The limiter issues one short script per credential request.
	opt.PoolSize = 10
	opt.MinIdleConns = 1
	opt.PoolTimeout = 2 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client. Tests use it to flush state.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// key namespaces a raw key.
func key(parts ...string) string {
	k := keyNamespace
	for _, p := range parts {
		k += p
	}
	return k
}
