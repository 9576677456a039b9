// Package redis wraps the go-redis client and provides the cooldown marker
// cache used by the scoring pass.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps a redis.Client.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// RDB returns the underlying redis client.
func (c *Client) RDB() *redis.Client {
	return c.rdb
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
