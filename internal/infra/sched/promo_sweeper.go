package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/infra/metrics"
)

const (
	sweepLockKey = "toolix:lock:promo_sweep"
	sweepLockTTL = time.Minute
)

type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Locker elects one replica per tick. The Redis SETNX locker satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// PromoSweeper drops expired promo tokens.
type PromoSweeper struct {
	promo  Sweeper
	locker Locker
	log    *zerolog.Logger
}

// NewPromoSweeper takes an optional locker; nil means every replica sweeps.
func NewPromoSweeper(promo Sweeper, locker Locker, logger *zerolog.Logger) *PromoSweeper {
	l := logger.With().Str("component", "PromoSweeper").Logger()
	return &PromoSweeper{promo: promo, locker: locker, log: &l}
}

// RunOnce performs one sweep. Losing the lock is not an error.
func (w *PromoSweeper) RunOnce(ctx context.Context) (int, error) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if errors.Is(err, domain.ErrLockNotAcquired) {
			w.log.Debug().Msg("sweep skipped, another replica holds the lock")
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		defer func() {
			if err := w.locker.Unlock(context.WithoutCancel(ctx), sweepLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("release sweep lock")
			}
		}()
	}

	n, err := w.promo.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddPromoSwept(n)
		w.log.Info().Int("count", n).Msg("expired promo tokens swept")
	}
	return n, nil
}

// Job adapts RunOnce for the scheduler.
func (w *PromoSweeper) Job() Job {
	return func(ctx context.Context) {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("promo sweep failed")
		}
	}
}
