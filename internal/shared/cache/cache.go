// Package cache wraps the Redis collaborator behind the handful of
// operations the application needs. Clients are built from the live
// configuration and replaced wholesale on reload.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options configures a cache client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client is a thin Redis client. A nil *Client is a valid "collaborator
// disabled" state; its methods return ErrNotInitialized.
type Client struct {
	rdb *redis.Client
}

// ErrNotInitialized reports use of an unbound cache client.
var ErrNotInitialized = fmt.Errorf("cache: client is not initialized")

// New creates a Redis-backed cache client.
func New(opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("cache: addr must not be empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Client{rdb: rdb}, nil
}

// HSetNX sets field in the hash at key to value, only if field does not
// already exist.
func (c *Client) HSetNX(ctx context.Context, key, field, value string) error {
	if c == nil || c.rdb == nil {
		return ErrNotInitialized
	}
	if err := c.rdb.HSetNX(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("cache: hsetnx %q/%q failed: %w", key, field, err)
	}
	return nil
}

// HExists reports whether field exists in the hash at key.
func (c *Client) HExists(ctx context.Context, key, field string) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, ErrNotInitialized
	}
	exists, err := c.rdb.HExists(ctx, key, field).Result()
	if err != nil {
		return false, fmt.Errorf("cache: hexists %q/%q failed: %w", key, field, err)
	}
	return exists, nil
}

// Exists reports whether key exists.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, ErrNotInitialized
	}
	count, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache: exists %q failed: %w", key, err)
	}
	return count > 0, nil
}

// Ping verifies connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return ErrNotInitialized
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
