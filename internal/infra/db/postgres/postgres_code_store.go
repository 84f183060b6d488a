package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CodeStore = (*codeStore)(nil)

const (
	codeHashConstraint       = "activation_codes_code_hash_key"
	codePaymentSessionIndex  = "activation_codes_payment_session_key"
	activationCodeSelectCols = `id, code, code_hash, plan, duration_hours, session_id, origin, single_use, created_at`
)

type codeStore struct {
	pool *pgxpool.Pool
}

func NewCodeStore(pool *pgxpool.Pool) *codeStore {
	return &codeStore{pool: pool}
}

func (r *codeStore) FindBySession(ctx context.Context, sessionID string) (*model.ActivationCode, error) {
	const q = `SELECT ` + activationCodeSelectCols + `
  FROM activation_codes
 WHERE session_id = $1 AND origin = 'payment';`
	return r.one(ctx, q, sessionID)
}

func (r *codeStore) FindByHash(ctx context.Context, codeHash string) (*model.ActivationCode, error) {
	const q = `SELECT ` + activationCodeSelectCols + `
  FROM activation_codes
 WHERE code_hash = $1;`
	return r.one(ctx, q, codeHash)
}

func (r *codeStore) one(ctx context.Context, q string, arg string) (*model.ActivationCode, error) {
	row, err := pickRow(ctx, r.pool, nil, q, arg)
	if err != nil {
		return nil, err
	}
	var ac model.ActivationCode
	var plan, origin string
	err = row.Scan(&ac.ID, &ac.Code, &ac.CodeHash, &plan, &ac.DurationHours, &ac.SessionID, &origin, &ac.SingleUse, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	ac.Plan = model.PlanID(plan)
	ac.Origin = model.CodeOrigin(origin)
	return &ac, nil
}

func (r *codeStore) Insert(ctx context.Context, c *model.ActivationCode) error {
	const q = `
INSERT INTO activation_codes (id, code, code_hash, plan, duration_hours, session_id, origin, single_use, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	_, err := execSQL(ctx, r.pool, nil, q,
		c.ID, c.Code, c.CodeHash, string(c.Plan), c.DurationHours, c.SessionID, string(c.Origin), c.SingleUse, c.CreatedAt,
	)
	if name, ok := uniqueViolation(err); ok {
		switch name {
		case codePaymentSessionIndex:
			return domain.ErrSessionExists
		case codeHashConstraint:
			return domain.ErrCodeHashCollision
		}
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, name)
	}
	return err
}

// DeleteByHash is a single DELETE so concurrent validators race on the row lock.
func (r *codeStore) DeleteByHash(ctx context.Context, codeHash string) (bool, error) {
	tag, err := execSQL(ctx, r.pool, nil, `DELETE FROM activation_codes WHERE code_hash = $1;`, codeHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
