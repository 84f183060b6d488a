package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/domain/ports/repository"
)

var _ repository.TokenStore = (*TokenStore)(nil)

// expiredGrace keeps an expired key around briefly so a late redemption is
// judged (and removed) by Consume rather than vanishing mid-flight.
const expiredGrace = time.Minute

// luaTake returns the stored value and deletes the key in one step.
var luaTake = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v then
	redis.call("DEL", KEYS[1])
end
return v`)

// TokenStore keeps promo tokens as keys with native TTL.
type TokenStore struct {
	cli   *redis.Client
	clock adapter.Clock
}

func NewTokenStore(c *Client, clock adapter.Clock) *TokenStore {
	return &TokenStore{cli: c.cli, clock: clock}
}

func TokenKey(token string) string { return "toolix:promo_token:" + token }

// keyTTL is the time left until expiresAt plus the grace, never below one second.
func keyTTL(expiresAt, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now) + expiredGrace
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func parseExpiry(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt promo token record %q: %w", v, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *TokenStore) Create(ctx context.Context, t *model.PromoToken) error {
	return s.cli.Set(ctx, TokenKey(t.Token), t.ExpiresAt.UnixMilli(), keyTTL(t.ExpiresAt, s.clock.Now())).Err()
}

func (s *TokenStore) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	v, err := luaTake.Run(ctx, s.cli, []string{TokenKey(token)}).Text()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	exp, err := parseExpiry(v)
	if err != nil {
		return false, err
	}
	return !(&model.PromoToken{Token: token, ExpiresAt: exp}).ExpiredAt(now), nil
}

// SweepExpired is a no-op; keys expire on their own.
func (s *TokenStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
