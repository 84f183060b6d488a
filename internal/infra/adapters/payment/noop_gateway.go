package payment

import (
	"context"
	"fmt"
	"sync"

	"toolix-activation/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

type noopSession struct {
	plan    adapter.CheckoutRequest
	paid    bool
	account string
}

// NoopPaymentGateway is an in-memory gateway for local runs and tests.
// Sessions start unpaid; MarkPaid flips them.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	sessions map[string]*noopSession
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{sessions: make(map[string]*noopSession)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("cs_noop_%d", g.seq)
}

func (g *NoopPaymentGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	g.sessions[id] = &noopSession{plan: req, account: req.AccountID}
	return &adapter.CheckoutSession{ID: id, URL: "https://example.test/pay/" + id}, nil
}

// MarkPaid settles a session previously opened with CreateCheckout.
func (g *NoopPaymentGateway) MarkPaid(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if ok {
		s.paid = true
	}
	return ok
}

func (g *NoopPaymentGateway) ConfirmPayment(ctx context.Context, sessionID string) (*adapter.PaymentConfirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("noop: session %q not found", sessionID)
	}
	return &adapter.PaymentConfirmation{
		SessionID:   sessionID,
		Paid:        s.paid,
		Plan:        s.plan.Plan.ID,
		AccountID:   s.account,
		AmountMinor: s.plan.Plan.PriceMinor,
	}, nil
}
