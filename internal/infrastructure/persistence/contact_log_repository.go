package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContactLogRepository implements ContactLogRepository using GORM.
// Contact logs are append-only.
type GormContactLogRepository struct {
	db *gorm.DB
}

// NewGormContactLogRepository creates a new GormContactLogRepository
func NewGormContactLogRepository(db *gorm.DB) *GormContactLogRepository {
	return &GormContactLogRepository{db: db}
}

// FindByCase lists contact attempts for a case, most recent contact first by default
func (r *GormContactLogRepository) FindByCase(ctx context.Context, caseID uuid.UUID, filter shared.Filter) ([]casework.ContactLog, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "contacted_at"
	}
	var rows []models.ContactLogModel
	query := Conn(ctx, r.db).Model(&models.ContactLogModel{}).Where("case_id = ?", caseID)
	query = paginate(query, filter, ContactLogSortFields, "contacted_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]casework.ContactLog, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountByCase counts contact attempts for a case
func (r *GormContactLogRepository) CountByCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).
		Model(&models.ContactLogModel{}).
		Where("case_id = ?", caseID).
		Count(&count).Error
	return count, err
}

// Create appends a contact log entry
func (r *GormContactLogRepository) Create(ctx context.Context, log *casework.ContactLog) error {
	return Conn(ctx, r.db).Create(models.ContactLogModelFromDomain(log)).Error
}

var _ casework.ContactLogRepository = (*GormContactLogRepository)(nil)
