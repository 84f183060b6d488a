// File: internal/usecase/activation_code_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/domain/ports/repository"
)

// maxCodeAttempts bounds regeneration after a hash collision.
const maxCodeAttempts = 5

// Compile-time check
var _ ActivationCodeUseCase = (*activationCodeUC)(nil)

// IssuedCode is an activation code as handed to a caller.
type IssuedCode struct {
	Code            *model.ActivationCode
	AlreadyRedeemed bool
}

// ValidationResult is the answer given to a remote client that submits a code hash.
type ValidationResult struct {
	Valid         bool `json:"valid"`
	DurationHours int  `json:"duration_hours,omitempty"`
	SingleUse     bool `json:"single_use"`
}

type ActivationCodeUseCase interface {
	// IssueForSession mints the code for a paid session, or returns the one already minted for it.
	IssueForSession(ctx context.Context, sessionID string, plan model.PlanID, durationHours int, singleUse bool) (*IssuedCode, error)
	// IssuePromo mints a single-use promo code under a synthetic session id.
	IssuePromo(ctx context.Context, source string, plan model.PlanID, durationHours int) (*IssuedCode, error)
	// Validate checks a code hash and consumes it if the code is single-use.
	Validate(ctx context.Context, codeHash string) (ValidationResult, error)
}

type activationCodeUC struct {
	codes repository.CodeStore
	clock adapter.Clock
	log   *zerolog.Logger
}

func NewActivationCodeUseCase(codes repository.CodeStore, clock adapter.Clock, logger *zerolog.Logger) *activationCodeUC {
	return &activationCodeUC{codes: codes, clock: clock, log: logger}
}

func (u *activationCodeUC) IssueForSession(ctx context.Context, sessionID string, plan model.PlanID, durationHours int, singleUse bool) (*IssuedCode, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required: %w", domain.ErrInvalidArgument)
	}
	plan, err := checkGrant(plan, durationHours)
	if err != nil {
		return nil, err
	}

	existing, err := u.codes.FindBySession(ctx, sessionID)
	if err == nil {
		return &IssuedCode{Code: existing, AlreadyRedeemed: true}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find code by session: %w", err)
	}

	code, err := u.mint(ctx, sessionID, model.CodeOriginPayment, plan, durationHours, singleUse)
	if errors.Is(err, domain.ErrSessionExists) {
		// lost a race with a concurrent confirmation of the same session
		existing, ferr := u.codes.FindBySession(ctx, sessionID)
		if ferr != nil {
			return nil, fmt.Errorf("reload code for session: %w", ferr)
		}
		return &IssuedCode{Code: existing, AlreadyRedeemed: true}, nil
	}
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("session_id", sessionID).Str("plan", string(plan)).Msg("activation code issued")
	return &IssuedCode{Code: code}, nil
}

func (u *activationCodeUC) IssuePromo(ctx context.Context, source string, plan model.PlanID, durationHours int) (*IssuedCode, error) {
	if source == "" {
		source = "promo"
	}
	plan, err := checkGrant(plan, durationHours)
	if err != nil {
		return nil, err
	}
	sessionID := source + "_" + strconv.FormatInt(u.clock.Now().UnixMilli(), 10)
	code, err := u.mint(ctx, sessionID, model.CodeOriginPromo, plan, durationHours, true)
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("session_id", sessionID).Msg("promo code issued")
	return &IssuedCode{Code: code}, nil
}

// mint generates and inserts a code, regenerating on hash collision.
func (u *activationCodeUC) mint(ctx context.Context, sessionID string, origin model.CodeOrigin, plan model.PlanID, durationHours int, singleUse bool) (*model.ActivationCode, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		raw, err := generateActivationCode(plan)
		if err != nil {
			return nil, fmt.Errorf("generate activation code: %w", err)
		}
		now := u.clock.Now()
		c := &model.ActivationCode{
			ID:            ulid.Make().String(),
			Code:          raw,
			CodeHash:      model.HashCode(raw),
			Plan:          plan,
			DurationHours: durationHours,
			SessionID:     sessionID,
			Origin:        origin,
			SingleUse:     singleUse,
			CreatedAt:     now,
		}
		err = u.codes.Insert(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrCodeHashCollision) {
			return nil, err
		}
		u.log.Warn().Int("attempt", attempt).Msg("activation code hash collision, regenerating")
	}
	return nil, fmt.Errorf("generate activation code after %d attempts: %w", maxCodeAttempts, domain.ErrCodeHashCollision)
}

func (u *activationCodeUC) Validate(ctx context.Context, codeHash string) (ValidationResult, error) {
	if !model.IsValidCodeHash(codeHash) {
		return ValidationResult{}, fmt.Errorf("code hash must be 64 lowercase hex characters: %w", domain.ErrInvalidArgument)
	}
	c, err := u.codes.FindByHash(ctx, codeHash)
	if errors.Is(err, domain.ErrNotFound) {
		return ValidationResult{Valid: false}, nil
	}
	if err != nil {
		return ValidationResult{}, fmt.Errorf("find code by hash: %w", err)
	}

	if c.SingleUse {
		removed, err := u.codes.DeleteByHash(ctx, codeHash)
		if err != nil {
			return ValidationResult{}, fmt.Errorf("consume single-use code: %w", err)
		}
		if !removed {
			return ValidationResult{Valid: false}, nil
		}
	}
	return ValidationResult{Valid: true, DurationHours: c.DurationHours, SingleUse: c.SingleUse}, nil
}

// checkGrant rejects bad input before any store mutation and returns the normalised plan id.
func checkGrant(plan model.PlanID, durationHours int) (model.PlanID, error) {
	if durationHours <= 0 {
		return "", fmt.Errorf("duration must be positive, got %d: %w", durationHours, domain.ErrInvalidArgument)
	}
	p, err := model.LookupPlan(plan)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}
