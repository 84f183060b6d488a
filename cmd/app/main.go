// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolix-activation/internal/application"
	"toolix-activation/internal/config"
	"toolix-activation/internal/infra/api"
	"toolix-activation/internal/infra/logging"
	"toolix-activation/internal/infra/metrics"
	"toolix-activation/internal/infra/sched"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted codes)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("version", version).Str("driver", cfg.Database.Driver).Str("payment", cfg.Payment.Provider).Msg("starting toolix activation service")

	// ---- Wiring ----
	app, err := application.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init")
	}
	defer app.Close()

	// ---- HTTP ----
	srv := api.NewServer(api.Services{
		Codes:        app.CodeUC,
		Promo:        app.PromoUC,
		Payments:     app.PaymentUC,
		Entitlements: app.EntitlementUC,
		Auth:         app.Auth,
		Limiter:      app.Limiter,
		Ready:        app.Ready,
	}, cfg, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Promo sweeper ----
	scheduler := sched.NewScheduler(time.Minute, logger)
	if err := scheduler.Add(cfg.Promo.SweepSchedule, "promo_sweep", app.Sweeper().Job()); err != nil {
		logger.Fatal().Err(err).Msg("scheduler")
	}
	scheduler.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	scheduler.Stop()
	cancel()
	logger.Info().Msg("bye")
}
