// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"toolix-activation/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	cli      *redis.Client
	attempts int
	backoff  time.Duration
}

// NewLocker returns a SETNX lock. attempts <= 1 means a single try.
func NewLocker(c *Client, attempts int) *RedisLocker {
	if attempts < 1 {
		attempts = 1
	}
	return &RedisLocker{cli: c.cli, attempts: attempts, backoff: 50 * time.Millisecond}
}

// TryLock returns domain.ErrLockNotAcquired when another holder owns key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < l.attempts; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			lastErr = err
		} else if ok {
			return token, nil
		}
		if i+1 < l.attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(l.backoff):
			}
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrLockNotAcquired
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
