// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// ConfirmRequest is a client's claim that a checkout session has been paid.
type ConfirmRequest struct {
	SessionID string
	// PlanHint is the plan the client believes it bought; it wins over the provider metadata.
	PlanHint model.PlanID
	// CallerAccountID is the authenticated account, empty for anonymous callers.
	CallerAccountID string
}

// GrantResult is either a minted code (anonymous) or an extended account expiry.
type GrantResult struct {
	Plan            model.Plan
	Code            *model.ActivationCode
	ExpiresAt       *time.Time
	AlreadyRedeemed bool
}

type PaymentUseCase interface {
	// CreateCheckout opens a provider checkout for a purchasable plan.
	CreateCheckout(ctx context.Context, planID model.PlanID, accountID, baseURL string) (*adapter.CheckoutSession, error)
	// Confirm verifies the session with the provider and applies the grant.
	Confirm(ctx context.Context, req ConfirmRequest) (*GrantResult, error)
	// CreateGrantForPayment applies a grant for a session the caller has already verified.
	CreateGrantForPayment(ctx context.Context, sessionID string, plan model.PlanID, accountID string) (*GrantResult, error)
}

type paymentUC struct {
	gateway       adapter.PaymentGateway
	codes         ActivationCodeUseCase
	entitlements  EntitlementUseCase
	paidSingleUse bool
	log           *zerolog.Logger
}

// NewPaymentUseCase wires the gateway to the issuers. paidSingleUse controls whether
// codes minted for anonymous payments are consumed on first validation.
func NewPaymentUseCase(gateway adapter.PaymentGateway, codes ActivationCodeUseCase, entitlements EntitlementUseCase, paidSingleUse bool, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{gateway: gateway, codes: codes, entitlements: entitlements, paidSingleUse: paidSingleUse, log: logger}
}

func (u *paymentUC) CreateCheckout(ctx context.Context, planID model.PlanID, accountID, baseURL string) (*adapter.CheckoutSession, error) {
	plan, err := model.LookupPurchasablePlan(planID)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(baseURL, "/")
	req := adapter.CheckoutRequest{
		Plan:       plan,
		AccountID:  accountID,
		SuccessURL: base + "/success?session_id={CHECKOUT_SESSION_ID}&plan=" + string(plan.ID),
		CancelURL:  base + "/#pricing",
	}
	sess, err := u.gateway.CreateCheckout(ctx, req)
	if err != nil {
		u.log.Error().Err(err).Str("provider", u.gateway.Name()).Msg("Failed to create checkout session")
		return nil, fmt.Errorf("create checkout: %w", asProviderError(err))
	}
	return sess, nil
}

func (u *paymentUC) Confirm(ctx context.Context, req ConfirmRequest) (*GrantResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("session id is required: %w", domain.ErrInvalidArgument)
	}

	conf, err := u.gateway.ConfirmPayment(ctx, req.SessionID)
	if err != nil {
		u.log.Error().Err(err).Str("provider", u.gateway.Name()).Str("session_id", req.SessionID).Msg("Payment verification failed")
		return nil, fmt.Errorf("confirm payment: %w", asProviderError(err))
	}
	if !conf.Paid {
		return nil, domain.ErrPaymentNotCompleted
	}

	plan, err := resolvePaidPlan(req.PlanHint, conf)
	if err != nil {
		u.log.Warn().Err(err).Str("session_id", req.SessionID).Str("plan_hint", string(req.PlanHint)).Msg("paid plan could not be confirmed")
		return nil, err
	}

	if req.CallerAccountID == "" && conf.AccountID != "" {
		return nil, fmt.Errorf("session is bound to an account: %w", domain.ErrUnauthorized)
	}
	if req.CallerAccountID != "" && conf.AccountID != req.CallerAccountID {
		u.log.Warn().Str("session_id", req.SessionID).Str("account_id", req.CallerAccountID).Msg("payment claimed by a different account")
		return nil, domain.ErrPaymentAccountMismatch
	}

	return u.CreateGrantForPayment(ctx, req.SessionID, plan.ID, req.CallerAccountID)
}

func (u *paymentUC) CreateGrantForPayment(ctx context.Context, sessionID string, planID model.PlanID, accountID string) (*GrantResult, error) {
	plan, err := model.LookupPurchasablePlan(planID)
	if err != nil {
		return nil, err
	}

	if accountID == "" {
		issued, err := u.codes.IssueForSession(ctx, sessionID, plan.ID, plan.DurationHours, u.paidSingleUse)
		if err != nil {
			return nil, err
		}
		res := &GrantResult{Plan: plan, Code: issued.Code, AlreadyRedeemed: issued.AlreadyRedeemed}
		if p, err := model.LookupPlan(issued.Code.Plan); err == nil {
			res.Plan = p
		}
		return res, nil
	}

	out, err := u.entitlements.Grant(ctx, GrantRequest{
		AccountID: accountID,
		Plan:      plan.ID,
		Hours:     plan.DurationHours,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}
	if p, err := model.LookupPlan(out.Entitlement.Plan); err == nil {
		plan = p
	}
	return &GrantResult{Plan: plan, ExpiresAt: out.Entitlement.ExpiresAt, AlreadyRedeemed: out.AlreadyRedeemed}, nil
}

// resolvePaidPlan takes the plan recorded at checkout. A client hint may only
// confirm it; without provider metadata the hint (or weekly) must match the amount paid.
func resolvePaidPlan(hint model.PlanID, conf *adapter.PaymentConfirmation) (model.Plan, error) {
	if conf.Plan != "" {
		plan, err := model.LookupPurchasablePlan(conf.Plan)
		if err != nil {
			return model.Plan{}, err
		}
		if hint != "" {
			h, err := model.LookupPlan(hint)
			if err != nil {
				return model.Plan{}, err
			}
			if h.ID != plan.ID {
				return model.Plan{}, fmt.Errorf("plan %q does not match the %q checkout: %w", h.ID, plan.ID, domain.ErrInvalidArgument)
			}
		}
		return plan, nil
	}

	id := hint
	if id == "" {
		id = model.PlanWeekly
	}
	plan, err := model.LookupPurchasablePlan(id)
	if err != nil {
		return model.Plan{}, err
	}
	if conf.AmountMinor != plan.PriceMinor {
		return model.Plan{}, fmt.Errorf("paid amount %d does not match plan %q: %w", conf.AmountMinor, plan.ID, domain.ErrInvalidArgument)
	}
	return plan, nil
}

// asProviderError tags gateway failures so callers can map them to a server fault.
func asProviderError(err error) error {
	if errors.Is(err, domain.ErrPaymentProvider) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
}
