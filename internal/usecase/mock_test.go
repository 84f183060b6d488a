//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
	"toolix-activation/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fixedClock is a settable clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var _ adapter.Clock = (*fixedClock)(nil)

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	ConfirmPaymentFunc func(ctx context.Context, sessionID string) (*adapter.PaymentConfirmation, error)
	CreateCheckoutFunc func(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error)

	mu       sync.Mutex
	Confirms int
	Requests []adapter.CheckoutRequest
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) ConfirmPayment(ctx context.Context, sessionID string) (*adapter.PaymentConfirmation, error) {
	m.mu.Lock()
	m.Confirms++
	m.mu.Unlock()
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, sessionID)
	}
	return &adapter.PaymentConfirmation{SessionID: sessionID, Paid: true}, nil
}

func (m *MockPaymentGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, req)
	}
	return &adapter.CheckoutSession{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

// =============================
// Repositories
// =============================

// ---- In-memory CodeStore ----

type MockCodeStore struct {
	mu        sync.Mutex
	bySession map[string]*model.ActivationCode
	byHash    map[string]*model.ActivationCode

	InsertFunc        func(ctx context.Context, c *model.ActivationCode) error
	FindBySessionFunc func(ctx context.Context, sessionID string) (*model.ActivationCode, error)
}

func NewMockCodeStore() *MockCodeStore {
	return &MockCodeStore{bySession: map[string]*model.ActivationCode{}, byHash: map[string]*model.ActivationCode{}}
}

var _ repository.CodeStore = (*MockCodeStore)(nil)

func (m *MockCodeStore) FindBySession(ctx context.Context, sessionID string) (*model.ActivationCode, error) {
	if m.FindBySessionFunc != nil {
		return m.FindBySessionFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.bySession[sessionID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockCodeStore) FindByHash(ctx context.Context, codeHash string) (*model.ActivationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byHash[codeHash]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockCodeStore) Insert(ctx context.Context, c *model.ActivationCode) error {
	if m.InsertFunc != nil {
		if err := m.InsertFunc(ctx, c); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[c.CodeHash]; ok {
		return domain.ErrCodeHashCollision
	}
	if c.Origin == model.CodeOriginPayment {
		if _, ok := m.bySession[c.SessionID]; ok {
			return domain.ErrSessionExists
		}
		m.bySession[c.SessionID] = c
	}
	m.byHash[c.CodeHash] = c
	return nil
}

func (m *MockCodeStore) DeleteByHash(ctx context.Context, codeHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byHash[codeHash]
	if !ok {
		return false, nil
	}
	delete(m.byHash, codeHash)
	if m.bySession[c.SessionID] == c {
		delete(m.bySession, c.SessionID)
	}
	return true, nil
}

func (m *MockCodeStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

// ---- In-memory TokenStore ----

type MockTokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time

	ConsumeFunc func(ctx context.Context, token string, now time.Time) (bool, error)
}

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{tokens: map[string]time.Time{}}
}

var _ repository.TokenStore = (*MockTokenStore)(nil)

func (m *MockTokenStore) Create(ctx context.Context, t *model.PromoToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Token] = t.ExpiresAt
	return nil
}

func (m *MockTokenStore) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, token, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[token]
	if !ok {
		return false, nil
	}
	delete(m.tokens, token)
	return !now.After(exp), nil
}

func (m *MockTokenStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for tok, exp := range m.tokens {
		if exp.Before(now) {
			delete(m.tokens, tok)
			n++
		}
	}
	return n, nil
}

func (m *MockTokenStore) Has(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok
}

// ---- In-memory AccountRepository ----

type MockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account

	SaveEntitlementFunc func(ctx context.Context, tx repository.Tx, accountID string, e model.Entitlement) error
}

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{accounts: map[string]*model.Account{}}
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func (m *MockAccountRepo) Put(a *model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

func (m *MockAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *MockAccountRepo) SaveEntitlement(ctx context.Context, tx repository.Tx, accountID string, e model.Entitlement) error {
	if m.SaveEntitlementFunc != nil {
		return m.SaveEntitlementFunc(ctx, tx, accountID, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Entitlement = e
	return nil
}

// ---- In-memory PaymentGrantRepository ----

type MockGrantRepo struct {
	mu     sync.Mutex
	grants map[string]*model.PaymentGrant
}

func NewMockGrantRepo() *MockGrantRepo {
	return &MockGrantRepo{grants: map[string]*model.PaymentGrant{}}
}

var _ repository.PaymentGrantRepository = (*MockGrantRepo)(nil)

func (m *MockGrantRepo) Insert(ctx context.Context, tx repository.Tx, g *model.PaymentGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grants[g.SessionID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *g
	m.grants[g.SessionID] = &cp
	return nil
}

func (m *MockGrantRepo) FindBySession(ctx context.Context, tx repository.Tx, sessionID string) (*model.PaymentGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grants[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// ---- TransactionManager ----

// MockTxManager serialises transactions, which is enough to stand in for the row lock.
type MockTxManager struct {
	mu         sync.Mutex
	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}
