package memstore

import (
	"context"
	"sync"
	"time"

	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var _ repository.TokenStore = (*TokenStore)(nil)

type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]time.Time)}
}

func (s *TokenStore) Create(ctx context.Context, t *model.PromoToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.Token] = t.ExpiresAt
	return nil
}

func (s *TokenStore) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[token]
	if !ok {
		return false, nil
	}
	delete(s.tokens, token)
	return !(&model.PromoToken{Token: token, ExpiresAt: exp}).ExpiredAt(now), nil
}

func (s *TokenStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for tok, exp := range s.tokens {
		if exp.Before(now) {
			delete(s.tokens, tok)
			n++
		}
	}
	return n, nil
}

// Len is the number of live records, expired ones included.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
