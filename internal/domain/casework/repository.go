package casework

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// CaseRepository defines the interface for case persistence.
// Supported filter keys: status, statuses, city, pd_id, pool_id, channel_id,
// provider_id, urgency, start_date, end_date.
type CaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Case, error)
	FindByTrackingCode(ctx context.Context, code string) (*Case, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Case, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindPooledBefore returns cases waiting in the pool since before the
	// cutoff that have no open system escalation, oldest first.
	FindPooledBefore(ctx context.Context, poolID uuid.UUID, cutoff time.Time, limit int) ([]Case, error)

	CountByStatus(ctx context.Context) (map[CaseStatus]int64, error)
	ExistsByTrackingCode(ctx context.Context, code string) (bool, error)

	// Save inserts a new case
	Save(ctx context.Context, c *Case) error

	// SaveWithLock updates an existing case using optimistic locking and
	// returns CONCURRENT_MODIFICATION if the stored version moved on.
	SaveWithLock(ctx context.Context, c *Case) error
}

// EscalationRepository defines the interface for escalation persistence.
// Supported filter keys: status, priority, case_id.
type EscalationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Escalation, error)
	FindByCase(ctx context.Context, caseID uuid.UUID) ([]Escalation, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Escalation, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountOpen(ctx context.Context) (int64, error)
	HasOpenSystemEscalation(ctx context.Context, caseID uuid.UUID) (bool, error)
	Save(ctx context.Context, e *Escalation) error
}

// ComplianceFlagRepository defines the interface for compliance flag persistence.
// Supported filter keys: status, severity, type, case_id, pd_id.
type ComplianceFlagRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ComplianceFlag, error)
	FindByCase(ctx context.Context, caseID uuid.UUID) ([]ComplianceFlag, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ComplianceFlag, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountOpen(ctx context.Context) (int64, error)
	HasBlockingFlag(ctx context.Context, caseID uuid.UUID) (bool, error)
	Save(ctx context.Context, f *ComplianceFlag) error
}

// ContactLogRepository defines the interface for contact log persistence
type ContactLogRepository interface {
	FindByCase(ctx context.Context, caseID uuid.UUID, filter shared.Filter) ([]ContactLog, error)
	CountByCase(ctx context.Context, caseID uuid.UUID) (int64, error)
	Create(ctx context.Context, log *ContactLog) error
}

// PoolRepository defines the interface for pool persistence.
// Supported filter keys: active, city.
type PoolRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Pool, error)
	FindByCity(ctx context.Context, city string) (*Pool, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Pool, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByCity(ctx context.Context, city string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, p *Pool) error
}
