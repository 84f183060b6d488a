package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter: INCR, and EXPIRE on the first hit.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// AllowClient applies the limit to one caller under scope.
func (r *RateLimiter) AllowClient(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, error) {
	return r.Allow(ctx, ClientKey(scope, subject), limit, window)
}

// ClientKey scopes a limit to one caller (account id or remote address).
func ClientKey(scope, subject string) string {
	return fmt.Sprintf("toolix:rate_limit:%s:%s", scope, subject)
}
