package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormComplianceFlagRepository implements ComplianceFlagRepository using GORM
type GormComplianceFlagRepository struct {
	db *gorm.DB
}

// NewGormComplianceFlagRepository creates a new GormComplianceFlagRepository
func NewGormComplianceFlagRepository(db *gorm.DB) *GormComplianceFlagRepository {
	return &GormComplianceFlagRepository{db: db}
}

// FindByID finds a compliance flag by ID
func (r *GormComplianceFlagRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.ComplianceFlag, error) {
	var model models.ComplianceFlagModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCase lists a case's compliance flags, newest first
func (r *GormComplianceFlagRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]casework.ComplianceFlag, error) {
	var rows []models.ComplianceFlagModel
	if err := Conn(ctx, r.db).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return flagsToDomain(rows), nil
}

// FindAll finds all compliance flags matching the filter
func (r *GormComplianceFlagRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.ComplianceFlag, error) {
	var rows []models.ComplianceFlagModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.ComplianceFlagModel{}), filter)
	query = paginate(query, filter, ComplianceFlagSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return flagsToDomain(rows), nil
}

// Count counts compliance flags matching the filter
func (r *GormComplianceFlagRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.ComplianceFlagModel{}), filter).Count(&count).Error
	return count, err
}

// CountOpen counts flags that have not been cleared
func (r *GormComplianceFlagRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).
		Model(&models.ComplianceFlagModel{}).
		Where("status = ?", casework.FlagStatusOpen).
		Count(&count).Error
	return count, err
}

// HasBlockingFlag reports whether an open high-severity flag exists on the case
func (r *GormComplianceFlagRepository) HasBlockingFlag(ctx context.Context, caseID uuid.UUID) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.ComplianceFlagModel{}).
		Where("case_id = ? AND status = ? AND severity = ?", caseID, casework.FlagStatusOpen, casework.FlagSeverityHigh).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a compliance flag
func (r *GormComplianceFlagRepository) Save(ctx context.Context, f *casework.ComplianceFlag) error {
	return Conn(ctx, r.db).Save(models.ComplianceFlagModelFromDomain(f)).Error
}

func (r *GormComplianceFlagRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	f := filter.Filters
	for _, key := range []string{"status", "severity", "type"} {
		if v, ok := filterString(f, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}
	for _, key := range []string{"case_id", "pd_id"} {
		if id, ok := filterUUID(f, key); ok {
			query = query.Where(key+" = ?", id)
		}
	}
	return query
}

func flagsToDomain(rows []models.ComplianceFlagModel) []casework.ComplianceFlag {
	out := make([]casework.ComplianceFlag, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ casework.ComplianceFlagRepository = (*GormComplianceFlagRepository)(nil)
