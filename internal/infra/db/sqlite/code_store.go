package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/repository"
)

var _ repository.CodeStore = (*CodeStore)(nil)

const codeCols = `id, code, code_hash, plan, duration_hours, session_id, origin, single_use, created_at`

type CodeStore struct {
	db *sql.DB
}

func NewCodeStore(db *sql.DB) *CodeStore {
	return &CodeStore{db: db}
}

func (s *CodeStore) FindBySession(ctx context.Context, sessionID string) (*model.ActivationCode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+codeCols+` FROM activation_codes WHERE session_id = ? AND origin = 'payment'`, sessionID)
	return scanCode(row)
}

func (s *CodeStore) FindByHash(ctx context.Context, codeHash string) (*model.ActivationCode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+codeCols+` FROM activation_codes WHERE code_hash = ?`, codeHash)
	return scanCode(row)
}

func scanCode(row *sql.Row) (*model.ActivationCode, error) {
	var (
		c              model.ActivationCode
		plan, origin   string
		singleUse      int
		createdAtMilli int64
	)
	err := row.Scan(&c.ID, &c.Code, &c.CodeHash, &plan, &c.DurationHours, &c.SessionID, &origin, &singleUse, &createdAtMilli)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	c.Plan = model.PlanID(plan)
	c.Origin = model.CodeOrigin(origin)
	c.SingleUse = singleUse != 0
	c.CreatedAt = time.UnixMilli(createdAtMilli).UTC()
	return &c, nil
}

func (s *CodeStore) Insert(ctx context.Context, c *model.ActivationCode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activation_codes (`+codeCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.CodeHash, string(c.Plan), c.DurationHours, c.SessionID, string(c.Origin), boolInt(c.SingleUse), c.CreatedAt.UnixMilli(),
	)
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		switch msg := se.Error(); {
		case strings.Contains(msg, "activation_codes.session_id"):
			return domain.ErrSessionExists
		case strings.Contains(msg, "activation_codes.code_hash"):
			return domain.ErrCodeHashCollision
		}
		return domain.ErrAlreadyExists
	}
	return err
}

func (s *CodeStore) DeleteByHash(ctx context.Context, codeHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activation_codes WHERE code_hash = ?`, codeHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
