package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const productCountKey = "catalog:product_count"

// CountCache holds the product count in Redis with a TTL. Writes to the
// products table must call Invalidate so the next read recomputes.
type CountCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCountCache(client *redis.Client, ttl time.Duration) *CountCache {
	return &CountCache{Client: client, TTL: ttl}
}

// Get returns the cached count. The second return value is false on a miss.
func (c *CountCache) Get(ctx context.Context) (int64, bool, error) {
	val, err := c.Client.Get(ctx, productCountKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return count, true, nil
}

func (c *CountCache) Set(ctx context.Context, count int64) error {
	return c.Client.Set(ctx, productCountKey, strconv.FormatInt(count, 10), c.TTL).Err()
}

func (c *CountCache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, productCountKey).Err()
}
