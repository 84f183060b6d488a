package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"toolix-activation/internal/config"
	"toolix-activation/internal/infra/logging"
	"toolix-activation/internal/infra/metrics"
	"toolix-activation/internal/usecase"
)

// Services are the use cases and collaborators the HTTP layer calls into.
type Services struct {
	Codes        usecase.ActivationCodeUseCase
	Promo        usecase.PromoUseCase
	Payments     usecase.PaymentUseCase
	Entitlements usecase.EntitlementUseCase
	Auth         *AuthManager
	// Limiter is optional; rate limiting is off without it.
	Limiter Limiter
	// Ready reports backing store health for /health. Optional.
	Ready func(ctx context.Context) error
}

type Server struct {
	svc       Services
	cfg       config.ServerConfig
	rateLimit config.RateLimitConfig
	dev       bool
	log       *zerolog.Logger
}

func NewServer(svc Services, cfg *config.Config, logger *zerolog.Logger) *Server {
	return &Server{
		svc:       svc,
		cfg:       cfg.Server,
		rateLimit: cfg.RateLimit,
		dev:       cfg.Runtime.Dev,
		log:       logging.Component(logger, "api"),
	}
}

// Routes builds the chi router for the public surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), TraceID(), RequestLog(s.log), Timeout(s.cfg.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	promoLimit := RateLimit(s.svc.Limiter, "promo", s.rateLimit.PromoPerMinute, s.log)
	validateLimit := RateLimit(s.svc.Limiter, "validate", s.rateLimit.ValidatePerMinute, s.log)

	r.Group(func(r chi.Router) {
		r.Use(s.svc.Auth.OptionalAuth)

		r.Get("/api/plans", s.handlePlans)
		r.Post("/api/create-checkout", s.handleCreateCheckout)
		r.Post("/api/verify-payment", s.handleVerifyPayment)
		r.Get("/success", s.handleSuccessPage)

		r.With(promoLimit).Get("/free-promo", s.handleFreePromoPage)
		r.With(promoLimit).Post("/api/promo/token", s.handleIssuePromoToken)
		r.Post("/api/claim-promo", s.handleClaimPromo)
		r.Get("/promo/{token}", s.handlePromoPage)

		r.With(validateLimit).Post("/api/activation/validate", s.handleValidateCode)
	})

	r.With(s.svc.Auth.RequireAuth).Post("/api/check-subscription", s.handleCheckSubscription)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		if err := s.svc.Ready(r.Context()); err != nil {
			l := logging.With(r.Context(), s.log)
			l.Warn().Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNAVAILABLE"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// baseURL prefers the configured public URL and falls back to the request's own origin.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/")
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if r.TLS != nil {
			proto = "https"
		}
	}
	return proto + "://" + r.Host
}
