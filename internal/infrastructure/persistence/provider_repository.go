package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProviderRepository implements ProviderRepository using GORM
type GormProviderRepository struct {
	db *gorm.DB
}

// NewGormProviderRepository creates a new GormProviderRepository
func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindByID finds a provider by ID
func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Provider, error) {
	var model models.ProviderModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all providers matching the filter
func (r *GormProviderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Provider, error) {
	var rows []models.ProviderModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.ProviderModel{}), filter)
	query = paginate(query, filter, ProviderSortFields, "name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]partner.Provider, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts providers matching the filter
func (r *GormProviderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.ProviderModel{}), filter).Count(&count).Error
	return count, err
}

// Save creates or updates a provider
func (r *GormProviderRepository) Save(ctx context.Context, provider *partner.Provider) error {
	return Conn(ctx, r.db).Save(models.ProviderModelFromDomain(provider)).Error
}

func (r *GormProviderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if channelID, ok := filterUUID(filter.Filters, "channel_id"); ok {
		query = query.Where("channel_id = ?", channelID)
	}
	if city, ok := filterString(filter.Filters, "city"); ok {
		query = query.Where("city = ?", shared.NormalizeCity(city))
	}
	if active, ok := filterBool(filter.Filters, "active"); ok {
		query = query.Where("active = ?", active)
	}
	return query
}

var _ partner.ProviderRepository = (*GormProviderRepository)(nil)
