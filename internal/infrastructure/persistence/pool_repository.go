package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPoolRepository implements PoolRepository using GORM
type GormPoolRepository struct {
	db *gorm.DB
}

// NewGormPoolRepository creates a new GormPoolRepository
func NewGormPoolRepository(db *gorm.DB) *GormPoolRepository {
	return &GormPoolRepository{db: db}
}

// FindByID finds a pool by ID
func (r *GormPoolRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.Pool, error) {
	var model models.PoolModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCity finds the pool serving a city
func (r *GormPoolRepository) FindByCity(ctx context.Context, city string) (*casework.Pool, error) {
	var model models.PoolModel
	if err := Conn(ctx, r.db).
		Where("city = ?", shared.NormalizeCity(city)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all pools matching the filter
func (r *GormPoolRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.Pool, error) {
	var rows []models.PoolModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.PoolModel{}), filter)
	query = paginate(query, filter, PoolSortFields, "city")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]casework.Pool, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts pools matching the filter
func (r *GormPoolRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.PoolModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsByCity checks whether a pool already serves the city
func (r *GormPoolRepository) ExistsByCity(ctx context.Context, city string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := Conn(ctx, r.db).Model(&models.PoolModel{}).Where("city = ?", shared.NormalizeCity(city))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a pool
func (r *GormPoolRepository) Save(ctx context.Context, p *casework.Pool) error {
	return Conn(ctx, r.db).Save(models.PoolModelFromDomain(p)).Error
}

func (r *GormPoolRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if active, ok := filterBool(filter.Filters, "active"); ok {
		query = query.Where("active = ?", active)
	}
	if city, ok := filterString(filter.Filters, "city"); ok {
		query = query.Where("city = ?", shared.NormalizeCity(city))
	}
	return query
}

var _ casework.PoolRepository = (*GormPoolRepository)(nil)
