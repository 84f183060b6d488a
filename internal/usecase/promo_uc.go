// File: internal/usecase/promo_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/domain/ports/repository"
)

const (
	DefaultPromoTokenTTL   = 5 * time.Minute
	DefaultPromoGrantHours = 2
)

// Compile-time check
var _ PromoUseCase = (*promoUC)(nil)

type PromoUseCase interface {
	// IssueToken stores a fresh single-use promo token.
	IssueToken(ctx context.Context) (*model.PromoToken, error)
	// RedeemAnonymous consumes the token and mints a single-use free_promo code.
	RedeemAnonymous(ctx context.Context, token, source string) (*IssuedCode, error)
	// RedeemForAccount consumes the token and extends the account directly.
	RedeemForAccount(ctx context.Context, token, accountID string) (*model.Entitlement, error)
	// SweepExpired drops tokens past their expiry.
	SweepExpired(ctx context.Context) (int, error)
}

type PromoConfig struct {
	TokenTTL   time.Duration
	GrantHours int
}

type promoUC struct {
	tokens       repository.TokenStore
	codes        ActivationCodeUseCase
	entitlements EntitlementUseCase
	clock        adapter.Clock
	cfg          PromoConfig
	log          *zerolog.Logger
}

func NewPromoUseCase(tokens repository.TokenStore, codes ActivationCodeUseCase, entitlements EntitlementUseCase, clock adapter.Clock, cfg PromoConfig, logger *zerolog.Logger) *promoUC {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultPromoTokenTTL
	}
	if cfg.GrantHours <= 0 {
		cfg.GrantHours = DefaultPromoGrantHours
	}
	return &promoUC{tokens: tokens, codes: codes, entitlements: entitlements, clock: clock, cfg: cfg, log: logger}
}

func (u *promoUC) IssueToken(ctx context.Context) (*model.PromoToken, error) {
	raw, err := generatePromoToken()
	if err != nil {
		return nil, fmt.Errorf("generate promo token: %w", err)
	}
	t := &model.PromoToken{Token: raw, ExpiresAt: u.clock.Now().Add(u.cfg.TokenTTL)}
	if err := u.tokens.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("store promo token: %w", err)
	}
	return t, nil
}

// consume collapses missing, expired and already-used tokens into one outcome.
func (u *promoUC) consume(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	ok, err := u.tokens.Consume(ctx, token, u.clock.Now())
	if err != nil {
		return fmt.Errorf("consume promo token: %w", err)
	}
	if !ok {
		return domain.ErrInvalidOrExpiredToken
	}
	return nil
}

func (u *promoUC) RedeemAnonymous(ctx context.Context, token, source string) (*IssuedCode, error) {
	if err := u.consume(ctx, token); err != nil {
		return nil, err
	}
	issued, err := u.codes.IssuePromo(ctx, source, model.PlanFreePromo, u.cfg.GrantHours)
	if err != nil {
		// the token is gone for good; a failed grant never makes it redeemable again
		u.log.Error().Err(err).Msg("Failed to mint promo code after consuming token")
		return nil, err
	}
	return issued, nil
}

func (u *promoUC) RedeemForAccount(ctx context.Context, token, accountID string) (*model.Entitlement, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required: %w", domain.ErrInvalidArgument)
	}
	if err := u.consume(ctx, token); err != nil {
		return nil, err
	}
	out, err := u.entitlements.Grant(ctx, GrantRequest{
		AccountID:      accountID,
		Plan:           model.PlanPromo,
		Hours:          u.cfg.GrantHours,
		KeepActivePlan: true,
	})
	if err != nil {
		u.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to grant promo after consuming token")
		return nil, err
	}
	return &out.Entitlement, nil
}

func (u *promoUC) SweepExpired(ctx context.Context) (int, error) {
	return u.tokens.SweepExpired(ctx, u.clock.Now())
}
