package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var _ repository.TokenStore = (*tokenStore)(nil)

type tokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *tokenStore {
	return &tokenStore{pool: pool}
}

func (r *tokenStore) Create(ctx context.Context, t *model.PromoToken) error {
	_, err := execSQL(ctx, r.pool, nil, `INSERT INTO promo_tokens (token, expires_at) VALUES ($1, $2);`, t.Token, t.ExpiresAt)
	return err
}

// Consume deletes the row and judges expiry on the returned value, so a token
// can never be observed by two callers.
func (r *tokenStore) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	row, err := pickRow(ctx, r.pool, nil, `DELETE FROM promo_tokens WHERE token = $1 RETURNING expires_at;`, token)
	if err != nil {
		return false, err
	}
	var exp time.Time
	if err := row.Scan(&exp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return !(&model.PromoToken{Token: token, ExpiresAt: exp}).ExpiredAt(now), nil
}

func (r *tokenStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, nil, `DELETE FROM promo_tokens WHERE expires_at < $1;`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
