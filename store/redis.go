package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisClient is a Client backed by Redis.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
	shared bool
}

// NewRedisClient wraps an existing redis client; Close closes the underlying client.
func NewRedisClient(rdb *redis.Client, prefix string) *RedisClient {
	return &RedisClient{rdb: rdb, prefix: prefix}
}

func (c *RedisClient) key(k string) string { return c.prefix + k }

func (c *RedisClient) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.SetNX(ctx, c.key(key), value, ttl).Result()
}

func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisClient) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *RedisClient) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying redis client unless it was shared.
func (c *RedisClient) Close() error {
	if c.shared {
		return nil
	}
	return c.rdb.Close()
}

// String returns a diagnostic representation of the client.
func (c *RedisClient) String() string {
	opts := c.rdb.Options()
	return fmt.Sprintf("RedisClient{addr=%s db=%d prefix=%s}", opts.Addr, opts.DB, c.prefix)
}

// DialRedis opens a dedicated single-connection redis client; AUTH and SELECT run on connect.
func DialRedis(ctx context.Context, config *Config) (Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr(),
		Password: config.Auth,
		DB:       config.Database,
		PoolSize: 1,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection to %v failed: %w", config.Addr(), err)
	}
	return NewRedisClient(rdb, config.Prefix), nil
}

// SharedRedis returns a Dialer reusing rdb; connection attributes of the Config other than Prefix are ignored
// and closing a connection leaves rdb open.
func SharedRedis(rdb *redis.Client) Dialer {
	return func(ctx context.Context, config *Config) (Client, error) {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return &RedisClient{rdb: rdb, prefix: config.Prefix, shared: true}, nil
	}
}
