package audit

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/export"
	"go.uber.org/zap"
)

// Service answers admin queries over the audit trail
type Service struct {
	repo     audit.Repository
	recorder *Recorder
	logger   *zap.Logger
}

// NewService creates a new audit service
func NewService(repo audit.Repository, recorder *Recorder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// List retrieves a page of audit entries, newest first
func (s *Service) List(ctx context.Context, filter ListLogsFilter) ([]LogResponse, int64, error) {
	f := filter.ToFilter()
	logs, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]LogResponse, len(logs))
	for i := range logs {
		responses[i] = ToLogResponse(&logs[i])
	}
	return responses, total, nil
}

// Export streams the matching entries to w as CSV. The export itself is
// audited once the rows are written.
func (s *Service) Export(ctx context.Context, actor shared.Actor, w io.Writer, filter ListLogsFilter) (int, error) {
	if !actor.HasPermission(identity.PermAuditExport) {
		return 0, shared.ErrForbidden
	}

	writer := export.NewWriter(w, export.AuditColumns())
	rows, err := export.Stream(ctx, writer, filter.ToFilter(), s.repo.FindAll)
	if err != nil {
		s.logger.Error("Audit export failed", zap.Int("rows", rows), zap.Error(err))
		return rows, err
	}

	if err := s.recorder.Record(ctx, actor, audit.ActionAuditExported, audit.EntityAuditLog, uuid.Nil,
		audit.After(map[string]any{"rows": rows})); err != nil {
		s.logger.Error("Failed to audit export", zap.Error(err))
	}
	return rows, nil
}
