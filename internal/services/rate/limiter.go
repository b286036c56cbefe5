package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const signInWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// Limiter throttles sign-in attempts per client. A nil store or a zero limit
// allows everything.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	return &Limiter{store: store, perMinute: perMinute}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.store != nil && l.perMinute > 0
}

// AllowSignIn counts one attempt and reports how long to wait when over the limit.
func (l *Limiter) AllowSignIn(ctx context.Context, client string) (int64, bool, error) {
	if !l.Enabled() {
		return 0, true, nil
	}
	client = strings.TrimSpace(client)
	if client == "" {
		return 0, false, fmt.Errorf("sign-in client key is required")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, signInKey(client), signInWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}
	return 0, true, nil
}

func (l *Limiter) RetryAfterSignIn(ctx context.Context, client string) (int64, error) {
	if !l.Enabled() {
		return 0, nil
	}
	count, ttl, err := l.store.WindowState(ctx, signInKey(strings.TrimSpace(client)))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.perMinute) {
		return ceilSeconds(ttl), nil
	}
	return 0, nil
}

// ResetSignIn clears the window after a successful sign-in.
func (l *Limiter) ResetSignIn(ctx context.Context, client string) error {
	if !l.Enabled() {
		return nil
	}
	return l.store.Reset(ctx, signInKey(strings.TrimSpace(client)))
}

func signInKey(client string) string {
	return "reviewdesk:rate:signin:" + strings.ToLower(client)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return sec
}
