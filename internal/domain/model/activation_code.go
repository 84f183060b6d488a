package model

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"
)

// CodeOrigin records which flow minted an activation code.
type CodeOrigin string

const (
	CodeOriginPayment CodeOrigin = "payment"
	CodeOriginPromo   CodeOrigin = "promo"
)

// ActivationCode is a redeemable grant exchanged out-of-band with a detached client.
// Only CodeHash is ever exchanged with the validating client.
type ActivationCode struct {
	ID            string
	Code          string
	CodeHash      string
	Plan          PlanID
	DurationHours int
	SessionID     string
	Origin        CodeOrigin
	SingleUse     bool
	CreatedAt     time.Time
}

var (
	codePattern     = regexp.MustCompile(`^TOOLIX-[A-Z]{3}-[0-9A-F]{12}$`)
	codeHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// HashCode returns the lowercase hex SHA-256 of the code's UTF-8 bytes.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// IsValidCodeFormat checks the TOOLIX-XXX-YYYYYYYYYYYY display format.
func IsValidCodeFormat(code string) bool { return codePattern.MatchString(code) }

// IsValidCodeHash checks for a 64-character lowercase hex digest.
func IsValidCodeHash(h string) bool { return codeHashPattern.MatchString(h) }
