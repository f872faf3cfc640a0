package earnings

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerRepository defines the interface for ledger persistence
type LedgerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)

	// FindByIDs loads several entries at once
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]LedgerEntry, error)

	// FindAll finds entries matching the filter.
	// Supported filter keys: pd_id, status, kind, case_id, start_date, end_date
	FindAll(ctx context.Context, filter shared.Filter) ([]LedgerEntry, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsAccrualForCase backs the once-per-case accrual rule
	ExistsAccrualForCase(ctx context.Context, caseID uuid.UUID) (bool, error)

	// SumByStatus totals non-void entries by status, optionally for one PD
	SumByStatus(ctx context.Context, pdID *uuid.UUID) (map[EntryStatus]decimal.Decimal, error)

	Save(ctx context.Context, entry *LedgerEntry) error
}
