package model

import "time"

// Entitlement is the premium-access state attached to an account or embedded in an activation code.
// Active implies ExpiresAt is set. A past ExpiresAt means inactive whatever Active says.
type Entitlement struct {
	Active    bool       `json:"active"`
	Plan      PlanID     `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// IsCurrentlyActive is the single lazy-expiry predicate.
func IsCurrentlyActive(e *Entitlement, now time.Time) bool {
	if e == nil || !e.Active || e.ExpiresAt == nil {
		return false
	}
	return now.Before(*e.ExpiresAt)
}

// ExtendExpiry stacks grantHours onto a currently active entitlement, or starts a fresh
// window at now. grantHours must be positive; callers validate it.
func ExtendExpiry(current *Entitlement, grantHours int, now time.Time) time.Time {
	grant := time.Duration(grantHours) * time.Hour
	if IsCurrentlyActive(current, now) {
		return current.ExpiresAt.Add(grant)
	}
	return now.Add(grant)
}

// Stale reports whether the stored flag still says active although the window has passed.
func (e *Entitlement) Stale(now time.Time) bool {
	return e != nil && e.Active && !IsCurrentlyActive(e, now)
}
