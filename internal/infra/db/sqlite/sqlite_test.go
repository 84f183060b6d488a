//go:build !integration

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolix-activation/internal/domain"
	"toolix-activation/internal/domain/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testCode(session string, origin model.CodeOrigin, raw string, singleUse bool) *model.ActivationCode {
	return &model.ActivationCode{
		ID:            "id-" + raw,
		Code:          raw,
		CodeHash:      model.HashCode(raw),
		Plan:          model.PlanMonthly,
		DurationHours: 720,
		SessionID:     session,
		Origin:        origin,
		SingleUse:     singleUse,
		CreatedAt:     time.UnixMilli(1767225600000).UTC(),
	}
}

func TestSQLiteCodeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a code", func(t *testing.T) {
		s := NewCodeStore(setupTestDB(t))
		c := testCode("sess_1", model.CodeOriginPayment, "TOOLIX-MON-ABCDEF012345", false)
		require.NoError(t, s.Insert(ctx, c))

		got, err := s.FindBySession(ctx, "sess_1")
		require.NoError(t, err)
		assert.Equal(t, *c, *got)

		got, err = s.FindByHash(ctx, c.CodeHash)
		require.NoError(t, err)
		assert.Equal(t, c.Code, got.Code)
	})

	t.Run("maps unique violations", func(t *testing.T) {
		s := NewCodeStore(setupTestDB(t))
		require.NoError(t, s.Insert(ctx, testCode("sess_1", model.CodeOriginPayment, "TOOLIX-MON-000000000001", false)))

		err := s.Insert(ctx, testCode("sess_1", model.CodeOriginPayment, "TOOLIX-MON-000000000002", false))
		assert.ErrorIs(t, err, domain.ErrSessionExists)

		dup := testCode("sess_2", model.CodeOriginPayment, "TOOLIX-MON-000000000001", false)
		dup.ID = "other-id"
		assert.ErrorIs(t, s.Insert(ctx, dup), domain.ErrCodeHashCollision)

		require.NoError(t, s.Insert(ctx, testCode("promo_1", model.CodeOriginPromo, "TOOLIX-FRE-000000000003", true)))
		require.NoError(t, s.Insert(ctx, testCode("promo_1", model.CodeOriginPromo, "TOOLIX-FRE-000000000004", true)))
	})

	t.Run("deletes once", func(t *testing.T) {
		s := NewCodeStore(setupTestDB(t))
		c := testCode("promo_9", model.CodeOriginPromo, "TOOLIX-FRE-0000000000AA", true)
		require.NoError(t, s.Insert(ctx, c))

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.DeleteByHash(ctx, c.CodeHash)
				assert.NoError(t, err)
				if ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins)

		_, err := s.FindByHash(ctx, c.CodeHash)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSQLiteTokenStore(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1767225600000)

	s := NewTokenStore(setupTestDB(t))
	require.NoError(t, s.Create(ctx, &model.PromoToken{Token: "edge", ExpiresAt: now}))
	require.NoError(t, s.Create(ctx, &model.PromoToken{Token: "late", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, s.Create(ctx, &model.PromoToken{Token: "live", ExpiresAt: now.Add(time.Minute)}))

	ok, err := s.Consume(ctx, "edge", now)
	require.NoError(t, err)
	assert.True(t, ok, "redeemable exactly at expiry")

	ok, err = s.Consume(ctx, "edge", now)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err = s.Consume(ctx, "live", now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "toolix.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewCodeStore(db).Insert(ctx, testCode("sess_p", model.CodeOriginPayment, "TOOLIX-MON-0000000000BB", false)))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	got, err := NewCodeStore(db).FindBySession(ctx, "sess_p")
	require.NoError(t, err)
	assert.Equal(t, "TOOLIX-MON-0000000000BB", got.Code)
}
