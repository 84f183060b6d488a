package adapter

import (
	"context"

	"toolix-activation/internal/domain/model"
)

// CheckoutRequest describes a one-time payment for a plan.
type CheckoutRequest struct {
	Plan       model.Plan
	AccountID  string // empty for anonymous checkouts
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider-side session the client is redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentConfirmation is the provider's verdict on a checkout session.
type PaymentConfirmation struct {
	SessionID   string
	Paid        bool
	Plan        model.PlanID // plan recorded at checkout time, may be empty
	AccountID   string       // account bound at checkout time, empty if anonymous
	AmountMinor int64
}

// PaymentGateway is the hex port for the payment authority.
type PaymentGateway interface {
	Name() string

	// CreateCheckout opens a checkout session carrying plan and account metadata.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ConfirmPayment retrieves the session and reports whether it has been paid.
	ConfirmPayment(ctx context.Context, sessionID string) (*PaymentConfirmation, error)
}
