//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

func newCode(session string, origin model.CodeOrigin, raw string, singleUse bool) *model.ActivationCode {
	return &model.ActivationCode{
		ID:            ulid.Make().String(),
		Code:          raw,
		CodeHash:      model.HashCode(raw),
		Plan:          model.PlanWeekly,
		DurationHours: 168,
		SessionID:     session,
		Origin:        origin,
		SingleUse:     singleUse,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestCodeStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	store := NewCodeStore(testPool)

	t.Run("should insert and find by session and hash", func(t *testing.T) {
		cleanup(t)
		c := newCode("sess_1", model.CodeOriginPayment, "TOOLIX-WEE-0A1B2C3D4E5F", false)
		if err := store.Insert(ctx, c); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		got, err := store.FindBySession(ctx, "sess_1")
		if err != nil {
			t.Fatalf("FindBySession failed: %v", err)
		}
		if got.Code != c.Code || got.Plan != model.PlanWeekly || got.Origin != model.CodeOriginPayment {
			t.Errorf("unexpected record %+v", got)
		}
		if _, err := store.FindByHash(ctx, c.CodeHash); err != nil {
			t.Errorf("FindByHash failed: %v", err)
		}
	})

	t.Run("should map unique violations to domain errors", func(t *testing.T) {
		cleanup(t)
		if err := store.Insert(ctx, newCode("sess_1", model.CodeOriginPayment, "TOOLIX-WEE-000000000001", false)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		err := store.Insert(ctx, newCode("sess_1", model.CodeOriginPayment, "TOOLIX-WEE-000000000002", false))
		if !errors.Is(err, domain.ErrSessionExists) {
			t.Errorf("expected ErrSessionExists, got %v", err)
		}
		err = store.Insert(ctx, newCode("sess_2", model.CodeOriginPayment, "TOOLIX-WEE-000000000001", false))
		if !errors.Is(err, domain.ErrCodeHashCollision) {
			t.Errorf("expected ErrCodeHashCollision, got %v", err)
		}
		// promo session ids may repeat
		if err := store.Insert(ctx, newCode("promo_1", model.CodeOriginPromo, "TOOLIX-FRE-000000000003", true)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := store.Insert(ctx, newCode("promo_1", model.CodeOriginPromo, "TOOLIX-FRE-000000000004", true)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("should delete a code for exactly one concurrent caller", func(t *testing.T) {
		cleanup(t)
		c := newCode("promo_x", model.CodeOriginPromo, "TOOLIX-FRE-00000000ABCD", true)
		if err := store.Insert(ctx, c); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.DeleteByHash(ctx, c.CodeHash)
				if err != nil {
					t.Errorf("DeleteByHash failed: %v", err)
				}
				if ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Errorf("expected exactly one delete, got %d", wins)
		}
	})
}

func TestTokenStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	store := NewTokenStore(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("should consume once and honour expiry", func(t *testing.T) {
		cleanup(t)
		_ = store.Create(ctx, &model.PromoToken{Token: "live", ExpiresAt: now.Add(time.Minute)})
		_ = store.Create(ctx, &model.PromoToken{Token: "dead", ExpiresAt: now.Add(-time.Second)})

		if ok, err := store.Consume(ctx, "live", now); err != nil || !ok {
			t.Errorf("expected live token to be consumed, got %v %v", ok, err)
		}
		if ok, _ := store.Consume(ctx, "live", now); ok {
			t.Error("expected second consume to fail")
		}
		if ok, _ := store.Consume(ctx, "dead", now); ok {
			t.Error("expected expired token to be rejected")
		}
		if n, _ := store.SweepExpired(ctx, now); n != 0 {
			t.Errorf("expected expired token to be gone already, swept %d", n)
		}
	})

	t.Run("should sweep only expired tokens", func(t *testing.T) {
		cleanup(t)
		_ = store.Create(ctx, &model.PromoToken{Token: "a", ExpiresAt: now.Add(-time.Minute)})
		_ = store.Create(ctx, &model.PromoToken{Token: "b", ExpiresAt: now.Add(time.Minute)})
		n, err := store.SweepExpired(ctx, now)
		if err != nil || n != 1 {
			t.Errorf("expected 1 swept, got %d (%v)", n, err)
		}
	})
}

func TestAccountAndGrantRepos_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	accounts := NewAccountRepo(testPool)
	grants := NewPaymentGrantRepo(testPool)
	tm := NewTxManager(testPool)
	cleanup(t)

	if err := accounts.Save(ctx, nil, &model.Account{ID: "acc-1", Username: "ana"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	acc, err := accounts.FindByID(ctx, nil, "acc-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if acc.Entitlement.Active || acc.Entitlement.Plan != model.PlanFree || acc.Entitlement.ExpiresAt != nil {
		t.Errorf("unexpected default entitlement %+v", acc.Entitlement)
	}

	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	err = tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := accounts.FindByIDForUpdate(ctx, tx, "acc-1"); err != nil {
			return err
		}
		if err := grants.Insert(ctx, tx, &model.PaymentGrant{SessionID: "sess_1", AccountID: "acc-1", Plan: model.PlanWeekly, ExpiresAt: exp, CreatedAt: time.Now()}); err != nil {
			return err
		}
		return accounts.SaveEntitlement(ctx, tx, "acc-1", model.Entitlement{Active: true, Plan: model.PlanWeekly, ExpiresAt: &exp})
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	acc, _ = accounts.FindByID(ctx, nil, "acc-1")
	if !acc.Entitlement.Active || acc.Entitlement.ExpiresAt == nil || !acc.Entitlement.ExpiresAt.Equal(exp) {
		t.Errorf("entitlement not persisted: %+v", acc.Entitlement)
	}

	dup := &model.PaymentGrant{SessionID: "sess_1", AccountID: "acc-1", Plan: model.PlanWeekly, ExpiresAt: exp, CreatedAt: time.Now()}
	if err := grants.Insert(ctx, nil, dup); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// a failing transaction leaves nothing behind
	boom := errors.New("boom")
	err = tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := grants.Insert(ctx, tx, &model.PaymentGrant{SessionID: "sess_2", AccountID: "acc-1", Plan: model.PlanWeekly, ExpiresAt: exp, CreatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := grants.FindBySession(ctx, nil, "sess_2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected rolled back grant to be absent, got %v", err)
	}

	if err := accounts.SaveEntitlement(ctx, nil, "ghost", model.Entitlement{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
