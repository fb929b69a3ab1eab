package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CallbackCache implements ports.CallbackCache. It is a fast-path dedup for
// processor callbacks keyed by transaction id + raw status; the order row's
// guarded status update remains the source of truth, so a cache miss on a
// duplicate is harmless.
type CallbackCache struct {
	client *goredis.Client
	prefix string
}

// NewCallbackCache creates a new Redis-backed callback cache.
func NewCallbackCache(client *goredis.Client) *CallbackCache {
	return &CallbackCache{
		client: client,
		prefix: "callback:",
	}
}

func (c *CallbackCache) key(transactionID, status string) string {
	return c.prefix + transactionID + ":" + status
}

// Seen reports whether this transaction+status pair was already handled.
func (c *CallbackCache) Seen(ctx context.Context, transactionID, status string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(transactionID, status)).Result()
	if err != nil {
		return false, fmt.Errorf("redis callback seen: %w", err)
	}
	return n > 0, nil
}

// Mark records the pair with a TTL so late retries from the processor are
// short-circuited.
func (c *CallbackCache) Mark(ctx context.Context, transactionID, status string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(transactionID, status), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis callback mark: %w", err)
	}
	return nil
}
