package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var (
	_ repository.AccountRepository      = (*AccountRepo)(nil)
	_ repository.AccountWriter          = (*AccountRepo)(nil)
	_ repository.PaymentGrantRepository = (*PaymentGrantRepo)(nil)
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Save upserts identity fields and the entitlement; used by provisioning tools and tests.
func (r *AccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	const q = `
INSERT INTO accounts (id, username, email, sub_active, sub_plan, sub_expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  username = EXCLUDED.username,
  email = EXCLUDED.email,
  sub_active = EXCLUDED.sub_active,
  sub_plan = EXCLUDED.sub_plan,
  sub_expires_at = EXCLUDED.sub_expires_at;`
	plan := a.Entitlement.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.Username, a.Email, a.Entitlement.Active, string(plan), a.Entitlement.ExpiresAt, a.CreatedAt)
	return err
}

func (r *AccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	return r.find(ctx, tx, id, "")
}

func (r *AccountRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	return r.find(ctx, tx, id, " FOR UPDATE")
}

func (r *AccountRepo) find(ctx context.Context, tx repository.Tx, id, lock string) (*model.Account, error) {
	q := `
SELECT id, username, email, sub_active, sub_plan, sub_expires_at, created_at
  FROM accounts WHERE id = $1` + lock + `;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var a model.Account
	var plan string
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Entitlement.Active, &plan, &a.Entitlement.ExpiresAt, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	a.Entitlement.Plan = model.PlanID(plan)
	return &a, nil
}

func (r *AccountRepo) SaveEntitlement(ctx context.Context, tx repository.Tx, accountID string, e model.Entitlement) error {
	const q = `UPDATE accounts SET sub_active = $2, sub_plan = $3, sub_expires_at = $4 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, accountID, e.Active, string(e.Plan), e.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type PaymentGrantRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentGrantRepo(pool *pgxpool.Pool) *PaymentGrantRepo {
	return &PaymentGrantRepo{pool: pool}
}

func (r *PaymentGrantRepo) Insert(ctx context.Context, tx repository.Tx, g *model.PaymentGrant) error {
	const q = `
INSERT INTO payment_grants (session_id, account_id, plan, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q, g.SessionID, g.AccountID, string(g.Plan), g.ExpiresAt, g.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *PaymentGrantRepo) FindBySession(ctx context.Context, tx repository.Tx, sessionID string) (*model.PaymentGrant, error) {
	const q = `SELECT session_id, account_id, plan, expires_at, created_at FROM payment_grants WHERE session_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}
	var g model.PaymentGrant
	var plan string
	if err := row.Scan(&g.SessionID, &g.AccountID, &plan, &g.ExpiresAt, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	g.Plan = model.PlanID(plan)
	return &g, nil
}
