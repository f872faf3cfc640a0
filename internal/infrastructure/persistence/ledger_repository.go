package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByID finds a ledger entry by ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*earnings.LedgerEntry, error) {
	var model models.LedgerEntryModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several entries at once
func (r *GormLedgerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]earnings.LedgerEntry, error) {
	if len(ids) == 0 {
		return []earnings.LedgerEntry{}, nil
	}
	var rows []models.LedgerEntryModel
	if err := Conn(ctx, r.db).Where("id IN ?", ids).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

// FindAll finds all entries matching the filter
func (r *GormLedgerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]earnings.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.LedgerEntryModel{}), filter)
	query = paginate(query, filter, LedgerSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

// Count counts entries matching the filter
func (r *GormLedgerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.LedgerEntryModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsAccrualForCase reports whether the case already accrued earnings
func (r *GormLedgerRepository) ExistsAccrualForCase(ctx context.Context, caseID uuid.UUID) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.LedgerEntryModel{}).
		Where("case_id = ? AND kind = ?", caseID, earnings.EntryKindAccrual).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type statusTotal struct {
	Status earnings.EntryStatus
	Total  decimal.Decimal
}

// SumByStatus totals non-void entries by status, optionally for one PD
func (r *GormLedgerRepository) SumByStatus(ctx context.Context, pdID *uuid.UUID) (map[earnings.EntryStatus]decimal.Decimal, error) {
	query := Conn(ctx, r.db).
		Model(&models.LedgerEntryModel{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("status <> ?", earnings.EntryStatusVoid)
	if pdID != nil {
		query = query.Where("pd_id = ?", *pdID)
	}

	var rows []statusTotal
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[earnings.EntryStatus]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Status] = row.Total
	}
	return totals, nil
}

// Save creates an entry or updates it with optimistic locking
func (r *GormLedgerRepository) Save(ctx context.Context, entry *earnings.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	if err := saveVersioned(Conn(ctx, r.db), &models.LedgerEntryModel{}, model, &model.AggregateModel,
		"The ledger entry has been modified by another user"); err != nil {
		return err
	}
	syncVersion(&entry.BaseAggregateRoot, &model.AggregateModel)
	return nil
}

func (r *GormLedgerRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	f := filter.Filters
	for _, key := range []string{"pd_id", "case_id"} {
		if id, ok := filterUUID(f, key); ok {
			query = query.Where(key+" = ?", id)
		}
	}
	for _, key := range []string{"status", "kind"} {
		if v, ok := filterString(f, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}
	return applyDateRange(query, f, "created_at")
}

func ledgerToDomain(rows []models.LedgerEntryModel) []earnings.LedgerEntry {
	out := make([]earnings.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ earnings.LedgerRepository = (*GormLedgerRepository)(nil)
