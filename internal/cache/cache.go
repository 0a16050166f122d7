package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"
)

// Named TTLs. A small fixed vocabulary keeps expiry reasoning tractable;
// arbitrary per-call durations are not used.
const (
	TTLHour = time.Hour
	TTLDay  = 24 * time.Hour
	TTLWeek = 7 * 24 * time.Hour

	// RefreshThreshold is the remaining-TTL floor below which directory
	// keys are refreshed in the background.
	RefreshThreshold = 15 * time.Minute
)

// Cache wraps a Client with serialization, the emptiness guard, and the
// degraded-mode policy: every backend error is logged and swallowed, and
// reads fall through to the authoritative loader.
type Cache struct {
	client Client
	logger *slog.Logger
}

func New(client Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Client exposes the underlying backend, for health checks.
func (c *Cache) Client() Client { return c.client }

// ReadThrough returns the cached value for key, or invokes loader and
// caches the result. Empty results (nil, empty slice, empty map) are never
// stored, so a data source that is merely slow to populate is retried on
// every read instead of masked by permanently-cached emptiness. With
// skip=true the cache is bypassed entirely and the fresh result is not
// written back.
func ReadThrough[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, skip bool, loader func(context.Context) (T, error)) (T, error) {
	var zero T

	if !skip {
		raw, ok, err := c.client.Get(ctx, key)
		if err != nil {
			c.logger.Warn("cache read failed, falling back to loader", "key", key, "error", err)
		} else if ok {
			var v T
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				c.logger.Warn("cache entry undecodable, falling back to loader", "key", key, "error", err)
			} else {
				c.logger.Debug("cache hit", "key", key)
				return v, nil
			}
		}
	}

	data, err := loader(ctx)
	if err != nil {
		return zero, err
	}

	if !skip && !isEmpty(data) {
		c.store(ctx, key, data, ttl)
	}

	return data, nil
}

// Write unconditionally stores value under key, subject to the emptiness
// guard. Backend failures are swallowed.
func Write[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) {
	if isEmpty(value) {
		c.logger.Debug("skipping cache write of empty value", "key", key)
		return
	}
	c.store(ctx, key, value, ttl)
}

// Read returns the cached value without a loader. ok is false on miss,
// backend failure, or undecodable payload.
func Read[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	raw, ok, err := c.client.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

// Invalidate deletes the key so the next read repopulates from the store.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key); err != nil {
		c.logger.Warn("cache invalidation failed", "key", key, "error", err)
		return
	}
	c.logger.Debug("cache invalidated", "key", key)
}

// RemainingTTL reports the time left before key expires. ok is false when
// the key is missing, has no expiry, or the backend is unreachable.
func (c *Cache) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	d, ok, err := c.client.TTL(ctx, key)
	if err != nil {
		c.logger.Warn("cache TTL check failed", "key", key, "error", err)
		return 0, false
	}
	return d, ok
}

func (c *Cache) store(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value unencodable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, string(raw), ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	c.logger.Debug("cache populated", "key", key, "ttl", ttl)
}

// isEmpty reports whether v is nil, a nil/empty slice or map, or a pointer
// to one of those. Scalars and structs are never empty.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}
