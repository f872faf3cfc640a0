package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditRecorder writes the audit entry for an operator action
type AuditRecorder interface {
	Record(ctx context.Context, actor shared.Actor, action, entityType string, entityID uuid.UUID, changes *audit.Changes) error
}

// OutboxService lets operators inspect delivery health and requeue events
// whose handlers gave up, for example an accrual that failed while the
// ledger table was locked. Every requeue is audited.
type OutboxService struct {
	repo     shared.OutboxRepository
	tx       shared.TxManager
	recorder AuditRecorder
	logger   *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, tx shared.TxManager, recorder AuditRecorder, logger *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, tx: tx, recorder: recorder, logger: logger}
}

// OutboxEntryDTO is an outbox entry as shown to operators. Payloads are
// left out.
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter pages the dead letter list
type OutboxFilter struct {
	Page     int `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsDTO counts entries by delivery status
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// Stats returns outbox counts by status
func (s *OutboxService) Stats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count outbox entries", zap.Error(err))
		return nil, err
	}
	stats := &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// DeadLetters pages through entries that ran out of retries
func (s *OutboxService) DeadLetters(ctx context.Context, filter OutboxFilter) ([]OutboxEntryDTO, int64, error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	entries, total, err := s.repo.FindDead(ctx, f.Page, f.PageSize)
	if err != nil {
		s.logger.Error("Failed to list dead letters", zap.Error(err))
		return nil, 0, err
	}
	out := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		out[i] = toOutboxEntryDTO(entry)
	}
	return out, total, nil
}

// RetryDeadEntry puts one dead entry back to pending with a fresh retry
// budget. Entries in any other status are rejected with INVALID_STATE.
func (s *OutboxService) RetryDeadEntry(ctx context.Context, actor shared.Actor, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requeue(ctx, actor, entry); err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries requeues dead entries in batches until none are left
// and returns how many were requeued. Entries that fail to update are
// skipped and stay dead.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context, actor shared.Actor) (int64, error) {
	const batch = 100
	var requeued int64
	for {
		// Requeued entries leave the dead set, so page 1 is always the next batch
		entries, _, err := s.repo.FindDead(ctx, 1, batch)
		if err != nil {
			s.logger.Error("Failed to list dead letters", zap.Error(err))
			return requeued, err
		}
		progressed := 0
		for _, entry := range entries {
			if err := s.requeue(ctx, actor, entry); err != nil {
				continue
			}
			progressed++
		}
		requeued += int64(progressed)
		if progressed == 0 || len(entries) < batch {
			break
		}
	}
	s.logger.Info("Dead letters requeued", zap.Int64("count", requeued), zap.Stringer("actor_id", actor.IDOrNil()))
	return requeued, nil
}

func (s *OutboxService) requeue(ctx context.Context, actor shared.Actor, entry *shared.OutboxEntry) error {
	lastError := entry.LastError
	if err := entry.ResetForRetry(); err != nil {
		return err
	}
	changes := &audit.Changes{
		Before: map[string]any{"status": string(shared.OutboxStatusDead), "last_error": lastError},
		After:  map[string]any{"status": string(entry.Status), "event_type": entry.EventType},
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entry); err != nil {
			return err
		}
		return s.recorder.Record(ctx, actor, audit.ActionOutboxRequeued, audit.EntityOutboxEntry, entry.ID, changes)
	})
	if err != nil {
		s.logger.Error("Failed to requeue outbox entry", zap.Error(err), zap.Stringer("id", entry.ID))
		return err
	}
	s.logger.Info("Outbox entry requeued",
		zap.Stringer("id", entry.ID),
		zap.String("event_type", entry.EventType),
	)
	return nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
