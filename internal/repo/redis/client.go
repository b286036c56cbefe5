package redis

import (
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient returns nil when addr is empty so callers can fall back to
// in-process implementations.
func NewClient(addr, password string, db int) *goredis.Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
