package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Lock serializes checkouts per customer. Only one checkout may run for a
// customer at a time; the TTL bounds how long a crashed handler can hold
// the lock before Redis expires it.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	return &Lock{Client: client, TTL: ttl}
}

func lockKey(customerID int64) string {
	return fmt.Sprintf("checkout_lock:%d", customerID)
}

// Acquire takes the customer's checkout lock. Returns false when another
// checkout already holds it.
func (l *Lock) Acquire(ctx context.Context, customerID int64, token string) (bool, error) {
	return l.Client.SetNX(ctx, lockKey(customerID), token, l.TTL).Result()
}

// Release frees the lock, but only when token still owns it. A lock that
// expired and was re-acquired by a later checkout is left alone.
func (l *Lock) Release(ctx context.Context, customerID int64, token string) error {
	key := lockKey(customerID)
	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := l.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
