//go:build !integration

package redis

import (
	"testing"
	"time"
)

func TestKeyTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("should follow the token expiry, not the wall clock", func(t *testing.T) {
		if got, want := keyTTL(now.Add(5*time.Minute), now), 5*time.Minute+expiredGrace; got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("should keep already-expired tokens for the grace window", func(t *testing.T) {
		if got, want := keyTTL(now.Add(-10*time.Second), now), expiredGrace-10*time.Second; got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("should never go below one second", func(t *testing.T) {
		if got := keyTTL(now.Add(-time.Hour), now); got != time.Second {
			t.Errorf("expected 1s floor, got %v", got)
		}
	})
}

func TestParseExpiry(t *testing.T) {
	exp := time.UnixMilli(1767225600123)
	got, err := parseExpiry("1767225600123")
	if err != nil || !got.Equal(exp) {
		t.Fatalf("expected %v, got %v err=%v", exp, got, err)
	}
	if _, err := parseExpiry("not-a-timestamp"); err == nil {
		t.Error("expected an error for a corrupt record")
	}
}
