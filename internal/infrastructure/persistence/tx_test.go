package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormTxManager_WithinTx(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		tm := NewGormTxManager(db.DB)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "pools" SET "active"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
			return Conn(ctx, db.DB).Exec(`UPDATE "pools" SET "active" = false`).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		tm := NewGormTxManager(db.DB)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call joins the outer transaction", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		tm := NewGormTxManager(db.DB)

		mock.ExpectBegin()
		mock.ExpectCommit()

		var outer, inner *gorm.DB
		err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
			outer, _ = ctx.Value(txKey{}).(*gorm.DB)
			return tm.WithinTx(ctx, func(ctx context.Context) error {
				inner, _ = ctx.Value(txKey{}).(*gorm.DB)
				return nil
			})
		})
		require.NoError(t, err)
		require.NotNil(t, outer)
		assert.Same(t, outer, inner)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConn_WithoutTx(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	ctx := context.Background()
	conn := Conn(ctx, db.DB)
	assert.Equal(t, ctx, conn.Statement.Context)
}
