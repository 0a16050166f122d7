package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the live cache backend.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient connects to the given address. The low retry budget keeps a
// dead backend from stalling requests; callers degrade to direct reads on
// error instead.
func NewRedisClient(addr, password string) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		MaxRetries:      1,
		DialTimeout:     3 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 3 * time.Second,
	})
	return &RedisClient{rdb: rdb}
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisClient) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *RedisClient) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// Redis reports -2 for a missing key and -1 for a key without expiry.
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisClient) Close() error { return c.rdb.Close() }
