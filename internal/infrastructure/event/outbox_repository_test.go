package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}

func newTestEntry(eventType string) *shared.OutboxEntry {
	return shared.NewOutboxEntry(newTestEvent(eventType), []byte(`{"data":"x"}`))
}

func TestGormOutboxRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOutboxRepository(setupOutboxDB(t))

	first := newTestEntry("case.completed")
	second := newTestEntry("case.pooled")
	require.NoError(t, repo.Save(ctx, first, second))
	require.NoError(t, repo.Save(ctx))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, e := range claimed {
		assert.Equal(t, shared.OutboxStatusProcessing, e.Status)
	}

	// Already claimed entries are not claimed twice
	again, err := repo.MarkProcessing(ctx, []uuid.UUID{first.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	claimed[0].MarkSent()
	require.NoError(t, repo.Update(ctx, claimed[0]))
	claimed[1].MarkFailed("handler error")
	require.NoError(t, repo.Update(ctx, claimed[1]))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusFailed])

	retryable, err := repo.FindRetryable(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, retryable)

	retryable, err = repo.FindRetryable(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, "handler error", retryable[0].LastError)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestGormOutboxRepository_DeadLetters(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOutboxRepository(setupOutboxDB(t))

	entries := []*shared.OutboxEntry{
		newTestEntry("case.completed"),
		newTestEntry("case.completed"),
		newTestEntry("pd.suspended"),
	}
	require.NoError(t, repo.Save(ctx, entries...))
	for _, e := range entries[:2] {
		e.MaxRetries = 1
		e.MarkFailed("boom")
		require.True(t, e.IsDead())
		require.NoError(t, repo.Update(ctx, e))
	}

	dead, total, err := repo.FindDead(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, dead, 1)

	found, err := repo.FindByID(ctx, entries[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "pd.suspended", found.EventType)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
