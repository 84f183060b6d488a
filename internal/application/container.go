// Package application assembles stores, adapters and use cases from config.
// The service entrypoint and the operator CLI share it.
package application

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/config"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/domain/ports/repository"
	payAdapters "toolix-activation/internal/infra/adapters/payment"
	"toolix-activation/internal/infra/api"
	pg "toolix-activation/internal/infra/db/postgres"
	"toolix-activation/internal/infra/db/sqlite"
	"toolix-activation/internal/infra/logging"
	"toolix-activation/internal/infra/memstore"
	red "toolix-activation/internal/infra/redis"
	"toolix-activation/internal/infra/sched"
	"toolix-activation/internal/usecase"
)

type Container struct {
	Config *config.Config
	Logger *zerolog.Logger

	Codes         repository.CodeStore
	Tokens        repository.TokenStore
	Accounts      repository.AccountRepository
	AccountWriter repository.AccountWriter
	Grants        repository.PaymentGrantRepository
	TxManager     repository.TransactionManager
	Gateway       adapter.PaymentGateway
	Auth          *api.AuthManager

	// Limiter and Locker stay nil without Redis.
	Limiter api.Limiter
	Locker  sched.Locker

	CodeUC        usecase.ActivationCodeUseCase
	EntitlementUC usecase.EntitlementUseCase
	PromoUC       usecase.PromoUseCase
	PaymentUC     usecase.PaymentUseCase

	// Ready pings the backing database; nil for the memory driver.
	Ready func(ctx context.Context) error

	closers []func()
}

// New opens the configured stores and wires the use cases. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	if err := c.openStores(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.openRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.openGateway(); err != nil {
		c.Close()
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn().Msg("auth.jwt_secret not set; using an ephemeral secret, account endpoints will reject external tokens")
	}
	c.Auth = api.NewAuthManager(secret)

	clock := adapter.SystemClock{}
	ucLog := logging.Component(logger, "usecase")
	c.CodeUC = usecase.NewActivationCodeUseCase(c.Codes, clock, ucLog)
	c.EntitlementUC = usecase.NewEntitlementUseCase(c.Accounts, c.Grants, c.TxManager, clock, ucLog)
	c.PromoUC = usecase.NewPromoUseCase(c.Tokens, c.CodeUC, c.EntitlementUC, clock, usecase.PromoConfig{
		TokenTTL:   cfg.Promo.TokenTTL,
		GrantHours: cfg.Promo.GrantHours,
	}, ucLog)
	c.PaymentUC = usecase.NewPaymentUseCase(c.Gateway, c.CodeUC, c.EntitlementUC, cfg.Codes.PaidSingleUse, ucLog)
	return c, nil
}

// Close releases stores and clients in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Sweeper returns the promo-token sweeper, leader-elected when Redis is configured.
func (c *Container) Sweeper() *sched.PromoSweeper {
	return sched.NewPromoSweeper(c.PromoUC, c.Locker, c.Logger)
}

func (c *Container) openStores(ctx context.Context) error {
	cfg := c.Config.Database
	switch cfg.Driver {
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.URL)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, pool.Close)
		go pg.ReportPoolStats(ctx, pool, 15*time.Second, c.Logger)

		accounts := pg.NewAccountRepo(pool)
		c.Codes = pg.NewCodeStore(pool)
		c.Tokens = pg.NewTokenStore(pool)
		c.Accounts, c.AccountWriter = accounts, accounts
		c.Grants = pg.NewPaymentGrantRepo(pool)
		c.TxManager = pg.NewTxManager(pool)
		c.Ready = func(ctx context.Context) error { return pool.Ping(ctx) }
		return nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func() { c.closeDB(db) })
		c.Logger.Warn().Msg("database.driver=sqlite: accounts are not persisted, serve anonymous clients only")

		c.Codes = sqlite.NewCodeStore(db)
		c.Tokens = sqlite.NewTokenStore(db)
		c.useMemoryAccounts()
		c.Ready = db.PingContext
		return nil

	case "memory":
		c.Logger.Warn().Msg("database.driver=memory: all state is lost on restart")
		c.Codes = memstore.NewCodeStore()
		c.Tokens = memstore.NewTokenStore()
		c.useMemoryAccounts()
		return nil

	default:
		return fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func (c *Container) useMemoryAccounts() {
	accounts := memstore.NewAccountStore()
	c.Accounts, c.AccountWriter = accounts, accounts
	c.Grants = memstore.NewGrantStore()
	c.TxManager = memstore.NewTxManager()
}

func (c *Container) closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		c.Logger.Error().Err(err).Msg("close sqlite")
	}
}

func (c *Container) openRedis(ctx context.Context) error {
	cfg := c.Config.Redis
	if cfg.URL == "" {
		return nil
	}
	rc, err := red.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.closers = append(c.closers, func() { _ = rc.Close() })
	c.Limiter = red.NewRateLimiter(rc)
	c.Locker = red.NewLocker(rc, 1)
	if cfg.TokenStore {
		c.Tokens = red.NewTokenStore(rc, adapter.SystemClock{})
		c.Logger.Info().Msg("promo tokens stored in redis")
	}
	return nil
}

func (c *Container) openGateway() error {
	var gw adapter.PaymentGateway
	switch c.Config.Payment.Provider {
	case "stripe":
		s := c.Config.Payment.Stripe
		stripe, err := payAdapters.NewStripeGateway(s.SecretKey, s.BaseURL, s.Currency, s.Timeout)
		if err != nil {
			return err
		}
		gw = stripe
	case "noop":
		c.Logger.Warn().Msg("payment.provider=noop: checkouts are simulated")
		gw = payAdapters.NewNoopPaymentGateway()
	default:
		return fmt.Errorf("unknown payment provider %q", c.Config.Payment.Provider)
	}
	c.Gateway = payAdapters.NewBreakerGateway(gw, c.Config.Payment.Breaker, c.Logger)
	return nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
