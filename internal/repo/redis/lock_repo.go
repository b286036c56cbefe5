package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "reviewdesk:decision-lock:"

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type LockRepo struct {
	client *goredis.Client
}

func NewLockRepo(client *goredis.Client) *LockRepo {
	return &LockRepo{client: client}
}

// Acquire returns an empty token and no error when the key is already held.
func (r *LockRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return "", fmt.Errorf("invalid lock payload")
	}

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire decision lock: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (r *LockRepo) Release(ctx context.Context, key string, token string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" || token == "" {
		return nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{lockKeyPrefix + key}, token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("release decision lock: %w", err)
	}
	return nil
}
