package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAuditRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAuditRepository(newTestDB(t))
	adminID := uuid.New()
	caseID := uuid.New()
	admin := shared.Actor{ID: &adminID, Type: shared.ActorTypeAdmin, Email: "ops@example.com", RequestID: "req-1"}

	changed, err := audit.NewLog(admin, audit.ActionCaseStatusChanged, audit.EntityCase, caseID, audit.Diff("status", "new", "triage"))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, changed))

	system, err := audit.NewLog(shared.SystemActor(), audit.ActionEscalationRaised, audit.EntityCase, caseID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, system))

	logs, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]any{"actor_id": adminID}})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionCaseStatusChanged, logs[0].Action)
	assert.Equal(t, "req-1", logs[0].RequestID)
	require.NotNil(t, logs[0].Changes)
	assert.Equal(t, "triage", logs[0].Changes.After["status"])

	count, err := repo.Count(ctx, shared.Filter{Filters: map[string]any{"entity_id": caseID, "entity_type": audit.EntityCase}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.Count(ctx, shared.Filter{Filters: map[string]any{"actor_type": "system"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
