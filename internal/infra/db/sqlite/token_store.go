package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var _ repository.TokenStore = (*TokenStore)(nil)

type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Create(ctx context.Context, t *model.PromoToken) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO promo_tokens (token, expires_at) VALUES (?, ?)`, t.Token, t.ExpiresAt.UnixMilli())
	return err
}

func (s *TokenStore) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	var expMilli int64
	err := s.db.QueryRowContext(ctx, `DELETE FROM promo_tokens WHERE token = ? RETURNING expires_at`, token).Scan(&expMilli)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !(&model.PromoToken{Token: token, ExpiresAt: time.UnixMilli(expMilli)}).ExpiredAt(now), nil
}

func (s *TokenStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM promo_tokens WHERE expires_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
