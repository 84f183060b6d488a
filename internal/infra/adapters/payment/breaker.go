package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"toolix-activation/internal/config"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*BreakerGateway)(nil)

// ErrCircuitOpen is returned while the provider breaker is open.
var ErrCircuitOpen = errors.New("payment provider circuit open")

// BreakerGateway guards another gateway with a circuit breaker. Only transport
// and provider errors count as failures; an unpaid session is a valid answer.
type BreakerGateway struct {
	next    adapter.PaymentGateway
	breaker *gobreaker.CircuitBreaker[any]
}

func NewBreakerGateway(next adapter.PaymentGateway, cfg config.BreakerConfig, logger *zerolog.Logger) *BreakerGateway {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	name := next.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("payment breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
	}
	metrics.SetBreakerState(name, int(gobreaker.StateClosed))
	return &BreakerGateway{next: next, breaker: gobreaker.NewCircuitBreaker[any](settings)}
}

func (b *BreakerGateway) Name() string { return b.next.Name() }

func (b *BreakerGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	res, err := b.execute(func() (any, error) { return b.next.CreateCheckout(ctx, req) })
	if err != nil {
		return nil, err
	}
	return res.(*adapter.CheckoutSession), nil
}

func (b *BreakerGateway) ConfirmPayment(ctx context.Context, sessionID string) (*adapter.PaymentConfirmation, error) {
	res, err := b.execute(func() (any, error) { return b.next.ConfirmPayment(ctx, sessionID) })
	if err != nil {
		return nil, err
	}
	return res.(*adapter.PaymentConfirmation), nil
}

func (b *BreakerGateway) execute(fn func() (any, error)) (any, error) {
	res, err := b.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, b.next.Name())
	}
	return res, err
}

// State exposes the breaker state for health reporting.
func (b *BreakerGateway) State() gobreaker.State { return b.breaker.State() }
