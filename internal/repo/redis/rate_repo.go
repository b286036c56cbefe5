package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type RateRepo struct {
	client *goredis.Client
}

func NewRateRepo(client *goredis.Client) *RateRepo {
	return &RateRepo{client: client}
}

// IncrementWindow bumps a fixed window counter and returns the count and the
// time left in the window.
func (r *RateRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment rate window: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set rate window ttl: %w", err)
		}
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate window ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

func (r *RateRepo) WindowState(ctx context.Context, key string) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return 0, 0, fmt.Errorf("rate key is required")
	}

	count, err := r.client.Get(ctx, key).Int64()
	if err == goredis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get rate window: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate window ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

// Reset drops a window, used after a successful sign-in.
func (r *RateRepo) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset rate window: %w", err)
	}
	return nil
}
