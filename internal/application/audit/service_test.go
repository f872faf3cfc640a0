package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEntry(t *testing.T, action string) audit.Log {
	t.Helper()
	entry, err := audit.NewLog(testutil.AdminActor(), action, audit.EntityCase, uuid.New(), audit.Diff("status", "new", "triage"))
	require.NoError(t, err)
	return *entry
}

func TestRecorder_Record(t *testing.T) {
	repo := new(testutil.MockAuditRepository)
	actor := testutil.AdminActor()
	caseID := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *audit.Log) bool {
		return l.Action == audit.ActionCaseStatusChanged &&
			l.EntityID == caseID &&
			*l.ActorID == *actor.ID &&
			l.RequestID == "req-test"
	})).Return(nil)

	err := NewRecorder(repo).Record(context.Background(), actor, audit.ActionCaseStatusChanged, audit.EntityCase, caseID, nil)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecorder_Record_RepositoryError(t *testing.T) {
	repo := new(testutil.MockAuditRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := NewRecorder(repo).Record(context.Background(), testutil.AdminActor(), audit.ActionPoolCreated, audit.EntityPool, uuid.New(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool.created")
}

func TestRecorder_Record_InvalidAction(t *testing.T) {
	repo := new(testutil.MockAuditRepository)

	err := NewRecorder(repo).Record(context.Background(), testutil.AdminActor(), " ", audit.EntityPool, uuid.New(), nil)
	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_List(t *testing.T) {
	repo := new(testutil.MockAuditRepository)
	svc := NewService(repo, NewRecorder(repo), zap.NewNop())
	entries := []audit.Log{newEntry(t, audit.ActionCaseStatusChanged), newEntry(t, audit.ActionCaseAssigned)}

	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["action"] == audit.ActionCaseStatusChanged && f.PageSize == 20
	})).Return(entries, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(2), nil)

	result, total, err := svc.List(context.Background(), ListLogsFilter{Action: audit.ActionCaseStatusChanged})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, result, 2)
	assert.Equal(t, "new", result[0].Changes.Before["status"])
}

func TestService_Export(t *testing.T) {
	repo := new(testutil.MockAuditRepository)
	svc := NewService(repo, NewRecorder(repo), zap.NewNop())
	actor := testutil.AdminActor(identity.PermAuditExport)

	repo.On("FindAll", mock.Anything, mock.Anything).Return([]audit.Log{newEntry(t, audit.ActionCaseAssigned)}, nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *audit.Log) bool {
		return l.Action == audit.ActionAuditExported && l.Changes.After["rows"] == 1
	})).Return(nil)

	var buf bytes.Buffer
	rows, err := svc.Export(context.Background(), actor, &buf, ListLogsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,created_at,actor_type"))
	assert.Contains(t, lines[1], audit.ActionCaseAssigned)
	repo.AssertExpectations(t)
}

func TestService_Export_RequiresPermission(t *testing.T) {
	repo := new(testutil.MockAuditRepository)
	svc := NewService(repo, NewRecorder(repo), zap.NewNop())

	_, err := svc.Export(context.Background(), testutil.AdminActor(identity.PermAuditRead), &bytes.Buffer{}, ListLogsFilter{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}
