package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"toolix-activation/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a small JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// statusFor maps domain errors onto HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, domain.ErrUnknownPlan):
		return http.StatusBadRequest, "Invalid plan"
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, "Invalid or expired session. Please reload the page."
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		return http.StatusBadRequest, "Payment not completed"
	case errors.Is(err, domain.ErrPaymentAccountMismatch):
		return http.StatusForbidden, "Payment does not belong to this account"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrPaymentProvider):
		return http.StatusBadGateway, "Payment provider unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
