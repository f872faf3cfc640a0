package persistence

import (
	"context"

	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM.
// Audit rows are never updated or deleted.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditRepository) Create(ctx context.Context, log *audit.Log) error {
	return Conn(ctx, r.db).Create(models.AuditLogModelFromDomain(log)).Error
}

// FindAll finds audit entries matching the filter, newest first by default
func (r *GormAuditRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Log, error) {
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "created_at", "desc"
	}
	var rows []models.AuditLogModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.AuditLogModel{}), filter)
	query = paginate(query, filter, AuditLogSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Log, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts audit entries matching the filter
func (r *GormAuditRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.AuditLogModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormAuditRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	f := filter.Filters
	for _, key := range []string{"actor_id", "entity_id"} {
		if id, ok := filterUUID(f, key); ok {
			query = query.Where(key+" = ?", id)
		}
	}
	for _, key := range []string{"actor_type", "entity_type", "action"} {
		if v, ok := filterString(f, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}
	return applyDateRange(query, f, "created_at")
}

var _ audit.Repository = (*GormAuditRepository)(nil)
