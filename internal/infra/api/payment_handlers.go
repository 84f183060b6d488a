package api

import (
	"errors"
	"net/http"
	"time"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/infra/logging"
	"toolix-activation/internal/infra/metrics"
	"toolix-activation/internal/usecase"
)

type planView struct {
	ID            model.PlanID `json:"id"`
	Name          string       `json:"name"`
	Price         int64        `json:"price"`
	DurationHours int          `json:"duration_hours"`
	Label         string       `json:"label"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans := model.PurchasablePlans()
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView{ID: p.ID, Name: p.Name, Price: p.PriceMinor, DurationHours: p.DurationHours, Label: p.Label})
	}
	writeJSON(w, http.StatusOK, struct {
		Plans []planView `json:"plans"`
	}{Plans: out})
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.svc.Payments.CreateCheckout(r.Context(), model.PlanID(req.Plan), AccountID(r.Context()), s.baseURL(r))
	if err != nil {
		metrics.IncCheckout(req.Plan, "fail")
		status, msg := statusFor(err)
		if status >= 500 {
			l := logging.With(r.Context(), s.log)
			l.Error().Err(err).Str("plan", req.Plan).Msg("create checkout failed")
		}
		writeError(w, status, msg)
		return
	}
	metrics.IncCheckout(req.Plan, "ok")
	writeJSON(w, http.StatusOK, struct {
		URL       string `json:"url"`
		SessionID string `json:"session_id"`
	}{URL: sess.URL, SessionID: sess.ID})
}

// verifyRequest accepts both the camelCase field of the web client and snake_case.
type verifyRequest struct {
	SessionID      string `json:"sessionId"`
	SessionIDSnake string `json:"session_id"`
	Plan           string `json:"plan"`
}

type verifyResponse struct {
	Success         bool         `json:"success"`
	Plan            model.PlanID `json:"plan"`
	Duration        string       `json:"duration"`
	Code            string       `json:"code,omitempty"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	AlreadyRedeemed bool         `json:"already_redeemed"`
	Message         string       `json:"message"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.PaymentVerifyRequests.WithLabelValues("fail", "bad_json").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = req.SessionIDSnake
	}

	res, err := s.confirm(r, req.SessionID, req.Plan)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponseFrom(res))
}

// confirm runs payment confirmation and records verify metrics; shared by the JSON and HTML surfaces.
func (s *Server) confirm(r *http.Request, sessionID, plan string) (*usecase.GrantResult, error) {
	ctx := logging.WithSessionID(r.Context(), sessionID)
	l := logging.With(ctx, s.log)
	start := time.Now()

	res, err := s.svc.Payments.Confirm(ctx, usecase.ConfirmRequest{
		SessionID:       sessionID,
		PlanHint:        model.PlanID(plan),
		CallerAccountID: AccountID(ctx),
	})
	if err != nil {
		reason := verifyFailReason(err)
		metrics.PaymentVerifyRequests.WithLabelValues("fail", reason).Inc()
		metrics.PaymentVerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
		if reason == "provider" || reason == "internal" {
			l.Error().Err(err).Msg("payment verification failed")
		} else {
			l.Info().Err(err).Str("reason", reason).Msg("payment verification rejected")
		}
		return nil, err
	}

	result := "ok"
	if res.AlreadyRedeemed {
		result = "replay"
	}
	metrics.PaymentVerifyRequests.WithLabelValues(result, "").Inc()
	metrics.PaymentVerifyDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	if res.Code != nil {
		metrics.IncCodeIssued(string(model.CodeOriginPayment), res.AlreadyRedeemed)
	}
	l.Info().Str("plan", string(res.Plan.ID)).Bool("already_redeemed", res.AlreadyRedeemed).Msg("payment verified")
	return res, nil
}

func verifyResponseFrom(res *usecase.GrantResult) verifyResponse {
	out := verifyResponse{
		Success:         true,
		Plan:            res.Plan.ID,
		Duration:        res.Plan.Label,
		ExpiresAt:       res.ExpiresAt,
		AlreadyRedeemed: res.AlreadyRedeemed,
		Message:         "Subscription activated successfully!",
	}
	if res.Code != nil {
		out.Code = res.Code.Code
		out.Message = "Payment verified. Enter this activation code in the Toolix app."
	}
	if res.AlreadyRedeemed {
		out.Message = "This payment was already processed."
	}
	return out
}

func verifyFailReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return "bad_json"
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		return "not_paid"
	case errors.Is(err, domain.ErrUnknownPlan):
		return "unknown_plan"
	case errors.Is(err, domain.ErrPaymentAccountMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrUnauthorized):
		return "auth"
	case errors.Is(err, domain.ErrPaymentProvider):
		return "provider"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func (s *Server) handleCheckSubscription(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Entitlements.Check(r.Context(), AccountID(r.Context()))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("check subscription failed")
		writeError(w, http.StatusInternalServerError, "Failed to check subscription")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*usecase.SubscriptionStatus
	}{Success: true, SubscriptionStatus: st})
}
