package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"toolix-activation/internal/infra/logging"
)

type ctxKey string

const ctxAccount ctxKey = "account_id"

// AccountClaims accepts either a standard "sub" or the legacy "id" claim as the account id.
type AccountClaims struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccountClaims) accountID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.ID
}

type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

// Mint signs an HS256 token for accountID. Used by the operator CLI and tests.
func (a *AuthManager) Mint(accountID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccountClaims{
		ID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

// ParseFromRequest reads "Authorization: Bearer <jwt>" and returns the account id.
func (a *AuthManager) ParseFromRequest(r *http.Request) (string, error) {
	hdr := strings.TrimSpace(r.Header.Get("Authorization"))
	if hdr == "" {
		return "", errMissingToken
	}
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return "", errInvalidToken
	}
	claims := &AccountClaims{}
	tkn, err := jwt.ParseWithClaims(strings.TrimSpace(hdr[7:]), claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.accountID() == "" {
		return "", errInvalidToken
	}
	return claims.accountID(), nil
}

// OptionalAuth lets requests without an Authorization header through anonymously.
// A header that does not carry a valid bearer is rejected, never downgraded to anonymous.
func (a *AuthManager) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.ParseFromRequest(r)
		switch {
		case errors.Is(err, errMissingToken):
		case err != nil:
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		default:
			r = r.WithContext(withAccount(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AuthManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.ParseFromRequest(r)
		if errors.Is(err, errMissingToken) {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), id)))
	})
}

func withAccount(ctx context.Context, id string) context.Context {
	return logging.WithAccountID(context.WithValue(ctx, ctxAccount, id), id)
}

// AccountID returns the authenticated account, or "" for anonymous callers.
func AccountID(ctx context.Context) string {
	v, _ := ctx.Value(ctxAccount).(string)
	return v
}
