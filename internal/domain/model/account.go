package model

import "time"

// Account is a user record provisioned by the external auth system. The engine only
// ever reads identity fields and mutates Entitlement.
type Account struct {
	ID          string
	Username    string
	Email       string
	Entitlement Entitlement
	CreatedAt   time.Time
}

// PaymentGrant records that a payment session has already extended an account.
// It is the ledger that makes account-bound payment confirmation idempotent.
type PaymentGrant struct {
	SessionID string
	AccountID string
	Plan      PlanID
	ExpiresAt time.Time
	CreatedAt time.Time
}
