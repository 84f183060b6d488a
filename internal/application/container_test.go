//go:build !integration

package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/config"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/usecase"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path, false)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestNew_MemoryDriver(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	cfg := loadConfig(t, "database:\n  driver: memory\npayment:\n  provider: noop\nauth:\n  jwt_secret: test-secret\n")

	app, err := New(ctx, cfg, &logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	if app.Limiter != nil || app.Locker != nil {
		t.Error("expected no limiter or locker without redis")
	}
	if app.Ready != nil {
		t.Error("expected no readiness probe for the memory driver")
	}
	if app.Gateway.Name() != "noop" {
		t.Errorf("expected noop gateway, got %s", app.Gateway.Name())
	}

	t.Run("should grant to a provisioned account", func(t *testing.T) {
		if err := app.AccountWriter.Save(ctx, nil, &model.Account{ID: "acc-1", Username: "ada"}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, err := app.EntitlementUC.Grant(ctx, usecase.GrantRequest{AccountID: "acc-1", Plan: model.PlanWeekly, Hours: 168}); err != nil {
			t.Fatalf("grant: %v", err)
		}
		st, err := app.EntitlementUC.Check(ctx, "acc-1")
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if !st.IsPremium || st.Plan != model.PlanWeekly {
			t.Errorf("expected premium weekly, got %+v", st)
		}
	})

	t.Run("should sweep without a locker", func(t *testing.T) {
		if _, err := app.Sweeper().RunOnce(ctx); err != nil {
			t.Fatalf("sweep: %v", err)
		}
	})

	t.Run("should mint tokens with the configured secret", func(t *testing.T) {
		tok, err := app.Auth.Mint("acc-1", time.Hour)
		if err != nil || tok == "" {
			t.Fatalf("mint: %q %v", tok, err)
		}
	})
}

func TestNew_SQLiteDriver(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "toolix.db")
	cfg := loadConfig(t, "database:\n  driver: sqlite\n  sqlite_path: "+dbPath+"\n")

	app, err := New(ctx, cfg, &logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	if app.Ready == nil {
		t.Fatal("expected a readiness probe for sqlite")
	}
	if err := app.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	issued, err := app.PromoUC.IssueToken(ctx)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	code, err := app.PromoUC.RedeemAnonymous(ctx, issued.Token, "test")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	res, err := app.CodeUC.Validate(ctx, code.Code.CodeHash)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Valid || !res.SingleUse {
		t.Errorf("expected a valid single-use code, got %+v", res)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"
	if _, err := New(context.Background(), cfg, &logger); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
