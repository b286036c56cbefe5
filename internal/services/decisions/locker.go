package decisions

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Locker grants at most one holder per key. Acquire returns an empty token
// with a nil error when the key is taken.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key string, token string) error
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is the in-process Locker used when redis is not configured.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
	seq   uint64
	now   func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]memoryLock),
		now:   time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.locks[key]; ok && now.Before(current.expiresAt) {
		return "", nil
	}

	l.seq++
	token := strconv.FormatUint(l.seq, 10)
	l.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}
	return token, nil
}

func (l *MemoryLocker) Release(_ context.Context, key string, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current, ok := l.locks[key]; ok && current.token == token {
		delete(l.locks, key)
	}
	return nil
}
