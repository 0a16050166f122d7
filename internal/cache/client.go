// Package cache implements the read-through cache fronting the relational
// store and the directory adapter. Cache availability is a performance
// optimization, never a correctness dependency: every operation degrades to
// the underlying loader when the backend is unreachable.
package cache

import (
	"context"
	"time"
)

// Client is the minimal key-value contract the cache layer needs from a
// backend. Implementations: RedisClient (live), MemoryClient (in-process),
// NoopClient (degraded mode).
type Client interface {
	// Get returns the raw value and whether the key was present.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores the value with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes the key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error
	// TTL returns the remaining lifetime of the key, and whether the key
	// exists with an expiry.
	TTL(ctx context.Context, key string) (remaining time.Duration, ok bool, err error)
	// Ping reports backend reachability, for health checks.
	Ping(ctx context.Context) error
}

// NoopClient is the degraded-mode backend: reads always miss and writes are
// dropped, so every read-through falls to its loader. Constructed at startup
// when no cache backend is configured or reachable.
type NoopClient struct{}

func NewNoopClient() *NoopClient { return &NoopClient{} }

func (*NoopClient) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (*NoopClient) Set(context.Context, string, string, time.Duration) error { return nil }

func (*NoopClient) Del(context.Context, string) error { return nil }

func (*NoopClient) TTL(context.Context, string) (time.Duration, bool, error) {
	return 0, false, nil
}

func (*NoopClient) Ping(context.Context) error { return nil }
