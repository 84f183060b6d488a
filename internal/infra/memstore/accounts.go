package memstore

import (
	"context"
	"sync"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var (
	_ repository.AccountRepository      = (*AccountStore)(nil)
	_ repository.AccountWriter          = (*AccountStore)(nil)
	_ repository.PaymentGrantRepository = (*GrantStore)(nil)
	_ repository.TransactionManager     = (*TxManager)(nil)
)

type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]model.Account)}
}

// Put creates or replaces an account; the auth system owns account lifecycle.
func (s *AccountStore) Put(a model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

func (s *AccountStore) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if a.Entitlement.Plan == "" {
		a.Entitlement.Plan = model.PlanFree
	}
	s.Put(*a)
	return nil
}

func (s *AccountStore) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// FindByIDForUpdate relies on TxManager serialising transactions.
func (s *AccountStore) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	return s.FindByID(ctx, tx, id)
}

func (s *AccountStore) SaveEntitlement(ctx context.Context, tx repository.Tx, accountID string, e model.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	if e.ExpiresAt != nil {
		exp := *e.ExpiresAt
		e.ExpiresAt = &exp
	}
	a.Entitlement = e
	s.accounts[accountID] = a
	return nil
}

type GrantStore struct {
	mu     sync.Mutex
	grants map[string]model.PaymentGrant
}

func NewGrantStore() *GrantStore {
	return &GrantStore{grants: make(map[string]model.PaymentGrant)}
}

func (s *GrantStore) Insert(ctx context.Context, tx repository.Tx, g *model.PaymentGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[g.SessionID]; ok {
		return domain.ErrAlreadyExists
	}
	s.grants[g.SessionID] = *g
	return nil
}

func (s *GrantStore) FindBySession(ctx context.Context, tx repository.Tx, sessionID string) (*model.PaymentGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

// TxManager runs one transaction at a time. There is no rollback; a failing fn
// leaves whatever it already wrote.
type TxManager struct {
	mu sync.Mutex
}

func NewTxManager() *TxManager { return &TxManager{} }

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}
