package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/infra/logging"
	"toolix-activation/internal/infra/metrics"
	"toolix-activation/internal/usecase"
)

// promoSource tags promo codes minted through the web surfaces.
const promoSource = "web"

func (s *Server) handleIssuePromoToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.svc.Promo.IssueToken(r.Context())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("issue promo token failed")
		writeError(w, http.StatusInternalServerError, "Failed to create promo session")
		return
	}
	metrics.IncPromoToken()
	writeJSON(w, http.StatusOK, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{Token: tok.Token, ExpiresAt: tok.ExpiresAt})
}

type claimRequest struct {
	Token string `json:"token"`
}

// handleClaimPromo extends the caller's account when a bearer is present and
// otherwise hands back a single-use activation code.
func (s *Server) handleClaimPromo(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}

	accountID := AccountID(r.Context())
	if accountID != "" {
		ent, err := s.svc.Promo.RedeemForAccount(r.Context(), req.Token, accountID)
		if err != nil {
			s.promoFailed(w, r, "account", err)
			return
		}
		metrics.IncPromoRedemption("account", "ok")
		writeJSON(w, http.StatusOK, struct {
			Success   bool         `json:"success"`
			Message   string       `json:"message"`
			Plan      model.PlanID `json:"plan"`
			ExpiresAt *time.Time   `json:"expires_at"`
		}{Success: true, Message: "2 hours of PRO added to your account!", Plan: ent.Plan, ExpiresAt: ent.ExpiresAt})
		return
	}

	issued, err := s.svc.Promo.RedeemAnonymous(r.Context(), req.Token, promoSource)
	if err != nil {
		s.promoFailed(w, r, "code", err)
		return
	}
	metrics.IncPromoRedemption("code", "ok")
	metrics.IncCodeIssued(string(model.CodeOriginPromo), false)
	writeJSON(w, http.StatusOK, struct {
		Success       bool   `json:"success"`
		Code          string `json:"code"`
		DurationHours int    `json:"duration_hours"`
	}{Success: true, Code: issued.Code.Code, DurationHours: issued.Code.DurationHours})
}

func (s *Server) promoFailed(w http.ResponseWriter, r *http.Request, mode string, err error) {
	result := "error"
	if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		result = "invalid"
	}
	metrics.IncPromoRedemption(mode, result)

	status, msg := statusFor(err)
	if errors.Is(err, domain.ErrNotFound) {
		status, msg = http.StatusUnauthorized, "User not found"
	}
	if status >= 500 {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("mode", mode).Msg("promo redemption failed")
	}
	writeError(w, status, msg)
}

type validateRequest struct {
	CodeHash string `json:"code_hash"`
}

func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.IncCodeValidation("malformed")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.svc.Codes.Validate(r.Context(), req.CodeHash)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusBadRequest {
			metrics.IncCodeValidation("malformed")
			writeError(w, status, "code_hash must be 64 lowercase hex characters")
			return
		}
		metrics.IncCodeValidation("error")
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("validate activation code failed")
		writeError(w, status, msg)
		return
	}

	if res.Valid {
		metrics.IncCodeValidation("valid")
	} else {
		metrics.IncCodeValidation("invalid")
	}
	writeJSON(w, http.StatusOK, res)
}

// --- HTML surfaces ---

func (s *Server) handleFreePromoPage(w http.ResponseWriter, r *http.Request) {
	tok, err := s.svc.Promo.IssueToken(r.Context())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("issue promo token failed")
		renderPage(w, http.StatusInternalServerError, pageData{Title: "Free Promo", Msg: "Failed to load promo page"})
		return
	}
	metrics.IncPromoToken()
	renderPromo(w, promoPageData{Token: tok.Token, ClaimURL: "/promo/" + tok.Token, WaitSeconds: 30})
}

func (s *Server) handlePromoPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var (
		issued *usecase.IssuedCode
		err    error
	)
	if token == "" {
		err = domain.ErrInvalidOrExpiredToken
	} else {
		issued, err = s.svc.Promo.RedeemAnonymous(r.Context(), token, promoSource)
	}
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			result = "invalid"
		}
		metrics.IncPromoRedemption("code", result)
		status, msg := statusFor(err)
		if status >= 500 {
			l := logging.With(r.Context(), s.log)
			l.Error().Err(err).Msg("promo page redemption failed")
		}
		renderPage(w, status, pageData{Title: "Free Promo", Msg: msg})
		return
	}
	metrics.IncPromoRedemption("code", "ok")
	metrics.IncCodeIssued(string(model.CodeOriginPromo), false)
	renderPage(w, http.StatusOK, pageData{
		OK:    true,
		Title: "Free Promo",
		Msg:   "Your 2 hours of Toolix Pro are ready. Enter this code in the app.",
		Code:  issued.Code.Code,
	})
}

func (s *Server) handleSuccessPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		renderPage(w, http.StatusBadRequest, pageData{Title: "Payment", Msg: "Missing session_id"})
		return
	}

	res, err := s.confirm(r, sessionID, q.Get("plan"))
	if err != nil {
		status, msg := statusFor(err)
		renderPage(w, status, pageData{Title: "Payment", Msg: msg})
		return
	}
	v := verifyResponseFrom(res)
	data := pageData{OK: true, Title: "Payment", Msg: v.Message, Code: v.Code, Plan: res.Plan.Label}
	if res.ExpiresAt != nil {
		data.ExpiresAt = res.ExpiresAt.UTC().Format(time.RFC1123)
	}
	renderPage(w, http.StatusOK, data)
}
