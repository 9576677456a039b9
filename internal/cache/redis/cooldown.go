package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "marketpulse:cooldown:"

// CooldownCache marks recently scored markets with a TTL key so the scoring
// pass can skip them without a database round trip. The signal store remains
// the source of truth; this cache is purely an optimization.
type CooldownCache struct {
	rdb *redis.Client
}

// NewCooldownCache creates a CooldownCache on top of the given client.
func NewCooldownCache(client *Client) *CooldownCache {
	return &CooldownCache{rdb: client.RDB()}
}

// Seen reports whether the market was marked within its TTL.
func (c *CooldownCache) Seen(ctx context.Context, marketID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, cooldownKeyPrefix+marketID).Result()
	if err != nil {
		return false, fmt.Errorf("redis: cooldown exists %s: %w", marketID, err)
	}
	return n > 0, nil
}

// Mark records that the market was just scored, expiring after ttl.
func (c *CooldownCache) Mark(ctx context.Context, marketID string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, cooldownKeyPrefix+marketID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis: cooldown mark %s: %w", marketID, err)
	}
	return nil
}
