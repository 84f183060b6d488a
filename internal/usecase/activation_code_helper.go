package usecase

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"

	"toolix-activation/internal/domain/model"
)

const codePrefix = "TOOLIX"

// generateActivationCode creates a random code for plan.
// Format: TOOLIX-XXX-YYYYYYYYYYYY (3 letters of the plan id, 48 random bits as uppercase hex)
func generateActivationCode(plan model.PlanID) (string, error) {
	buffer := make([]byte, 6)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	return codePrefix + "-" + planTag(plan) + "-" + strings.ToUpper(hex.EncodeToString(buffer)), nil
}

// planTag is the first three letters of the plan id, uppercased and padded with X.
func planTag(plan model.PlanID) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(string(plan)) {
		if r < 'A' || r > 'Z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 3 {
			return b.String()
		}
	}
	return (b.String() + "XXX")[:3]
}

// generatePromoToken returns 16 random bytes as 32 lowercase hex characters.
func generatePromoToken() (string, error) {
	buffer := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}
