// Package memstore holds process-local implementations of the storage ports.
// Nothing survives a restart; use it for development and tests.
package memstore

import (
	"context"
	"sync"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var _ repository.CodeStore = (*CodeStore)(nil)

type CodeStore struct {
	mu        sync.Mutex
	byHash    map[string]model.ActivationCode
	bySession map[string]string // session id -> code hash, payment origin only
}

func NewCodeStore() *CodeStore {
	return &CodeStore{
		byHash:    make(map[string]model.ActivationCode),
		bySession: make(map[string]string),
	}
}

func (s *CodeStore) FindBySession(ctx context.Context, sessionID string) (*model.ActivationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.bySession[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := s.byHash[h]
	return &c, nil
}

func (s *CodeStore) FindByHash(ctx context.Context, codeHash string) (*model.ActivationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byHash[codeHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *CodeStore) Insert(ctx context.Context, c *model.ActivationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Origin == model.CodeOriginPayment {
		if _, ok := s.bySession[c.SessionID]; ok {
			return domain.ErrSessionExists
		}
	}
	if _, ok := s.byHash[c.CodeHash]; ok {
		return domain.ErrCodeHashCollision
	}
	s.byHash[c.CodeHash] = *c
	if c.Origin == model.CodeOriginPayment {
		s.bySession[c.SessionID] = c.CodeHash
	}
	return nil
}

func (s *CodeStore) DeleteByHash(ctx context.Context, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byHash[codeHash]
	if !ok {
		return false, nil
	}
	delete(s.byHash, codeHash)
	if c.Origin == model.CodeOriginPayment && s.bySession[c.SessionID] == codeHash {
		delete(s.bySession, c.SessionID)
	}
	return true, nil
}
