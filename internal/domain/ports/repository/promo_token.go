package repository

import (
	"context"
	"time"

	"toolix-activation/internal/domain/model"
)

// TokenStore is the port for live promo tokens.
type TokenStore interface {
	Create(ctx context.Context, token *model.PromoToken) error
	// Consume atomically deletes the token and reports whether it existed and was
	// still valid at now. Expired records are removed as well.
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
	// SweepExpired removes every token whose expiry is before now and returns the count.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
