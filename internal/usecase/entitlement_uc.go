// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// SubscriptionStatus is what a desktop client sees when it checks its account.
type SubscriptionStatus struct {
	IsPremium bool         `json:"is_premium"`
	Plan      model.PlanID `json:"plan"`
	ExpiresAt *time.Time   `json:"expires_at"`
	Username  string       `json:"username"`
}

// GrantRequest extends an account's entitlement by Hours.
type GrantRequest struct {
	AccountID string
	Plan      model.PlanID
	Hours     int
	// SessionID, when set, makes the grant idempotent per payment session.
	SessionID string
	// KeepActivePlan leaves the current plan label in place while it is active (promo grants).
	KeepActivePlan bool
}

// GrantOutcome is the entitlement after a grant.
type GrantOutcome struct {
	Entitlement     model.Entitlement
	AlreadyRedeemed bool
}

type EntitlementUseCase interface {
	Check(ctx context.Context, accountID string) (*SubscriptionStatus, error)
	Grant(ctx context.Context, req GrantRequest) (*GrantOutcome, error)
}

type entitlementUC struct {
	accounts repository.AccountRepository
	grants   repository.PaymentGrantRepository
	tm       repository.TransactionManager
	clock    adapter.Clock
	log      *zerolog.Logger
}

func NewEntitlementUseCase(accounts repository.AccountRepository, grants repository.PaymentGrantRepository, tm repository.TransactionManager, clock adapter.Clock, logger *zerolog.Logger) *entitlementUC {
	return &entitlementUC{accounts: accounts, grants: grants, tm: tm, clock: clock, log: logger}
}

// Check reports the lazily-expired status and clears a stale active flag on the way.
func (u *entitlementUC) Check(ctx context.Context, accountID string) (*SubscriptionStatus, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required: %w", domain.ErrInvalidArgument)
	}
	acc, err := u.accounts.FindByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	ent := acc.Entitlement
	if ent.Stale(now) {
		ent.Active = false
		ent.Plan = model.PlanFree
		if err := u.accounts.SaveEntitlement(ctx, nil, accountID, ent); err != nil {
			// the read result is still correct; the flag is cleared on the next check
			u.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to clear expired entitlement")
		}
	}

	st := &SubscriptionStatus{
		IsPremium: model.IsCurrentlyActive(&ent, now),
		Plan:      model.PlanFree,
		ExpiresAt: ent.ExpiresAt,
		Username:  acc.Username,
	}
	if st.IsPremium {
		st.Plan = ent.Plan
	}
	return st, nil
}

func (u *entitlementUC) Grant(ctx context.Context, req GrantRequest) (*GrantOutcome, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("account id is required: %w", domain.ErrInvalidArgument)
	}
	if req.Hours <= 0 {
		return nil, fmt.Errorf("grant hours must be positive, got %d: %w", req.Hours, domain.ErrInvalidArgument)
	}

	var out *GrantOutcome
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		acc, err := u.accounts.FindByIDForUpdate(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}

		if req.SessionID != "" {
			prior, err := u.grants.FindBySession(ctx, tx, req.SessionID)
			switch {
			case err == nil:
				out, err = priorOutcome(prior, req.AccountID)
				return err
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("find payment grant: %w", err)
			}
		}

		now := u.clock.Now()
		cur := acc.Entitlement
		expiresAt := model.ExtendExpiry(&cur, req.Hours, now)
		plan := req.Plan
		if req.KeepActivePlan && model.IsCurrentlyActive(&cur, now) && cur.Plan != "" {
			plan = cur.Plan
		}
		next := model.Entitlement{Active: true, Plan: plan, ExpiresAt: &expiresAt}

		if req.SessionID != "" {
			g := &model.PaymentGrant{
				SessionID: req.SessionID,
				AccountID: req.AccountID,
				Plan:      plan,
				ExpiresAt: expiresAt,
				CreatedAt: now,
			}
			if err := u.grants.Insert(ctx, tx, g); err != nil {
				return err
			}
		}
		if err := u.accounts.SaveEntitlement(ctx, tx, req.AccountID, next); err != nil {
			return fmt.Errorf("save entitlement: %w", err)
		}
		out = &GrantOutcome{Entitlement: next}
		return nil
	})

	if errors.Is(err, domain.ErrAlreadyExists) && req.SessionID != "" {
		// another request recorded the session between our read and insert
		prior, ferr := u.grants.FindBySession(ctx, nil, req.SessionID)
		if ferr != nil {
			return nil, fmt.Errorf("reload payment grant: %w", ferr)
		}
		return priorOutcome(prior, req.AccountID)
	}
	if err != nil {
		return nil, err
	}

	if !out.AlreadyRedeemed {
		u.log.Info().
			Str("account_id", req.AccountID).
			Str("plan", string(out.Entitlement.Plan)).
			Int("hours", req.Hours).
			Time("expires_at", *out.Entitlement.ExpiresAt).
			Msg("entitlement extended")
	}
	return out, nil
}

func priorOutcome(g *model.PaymentGrant, accountID string) (*GrantOutcome, error) {
	if g.AccountID != accountID {
		return nil, domain.ErrPaymentAccountMismatch
	}
	exp := g.ExpiresAt
	return &GrantOutcome{
		Entitlement:     model.Entitlement{Active: true, Plan: g.Plan, ExpiresAt: &exp},
		AlreadyRedeemed: true,
	}, nil
}
