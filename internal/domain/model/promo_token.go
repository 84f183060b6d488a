package model

import "time"

// PromoToken is a short-lived, single-use credential for one free promotional grant.
type PromoToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the token can no longer be redeemed at now.
func (t *PromoToken) ExpiredAt(now time.Time) bool {
	return t == nil || now.After(t.ExpiresAt)
}
