package lock

import (
	"context"
	"errors"
	"time"

	"bill-mart/pkg/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis backs the lock with bsm/redislock so several API instances share it.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(rdb redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: redislock.New(rdb), ttl: ttl, retry: 50 * time.Millisecond}
}

// Lock retries until the key is free or ctx ends. Without a deadline on ctx,
// redislock gives up after one TTL.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	l, err := r.client.Obtain(ctx, key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.LogError("lock", "Lock", "Could not obtain lock", key, err)
		return nil, ErrNotObtained
	}
	if err != nil {
		logger.LogError("lock", "Lock", "Error obtaining lock", key, err)
		return nil, err
	}

	return once(func() {
		// the lock may already have expired; nothing to do then
		if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError("lock", "Unlock", "Error releasing lock", key, err)
		}
	}), nil
}
