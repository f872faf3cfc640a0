package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormChannelRepository implements ChannelRepository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// FindByID finds a clinical channel by ID
func (r *GormChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.ClinicalChannel, error) {
	var model models.ClinicalChannelModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all channels matching the filter.
// Supported filter keys: kind, active
func (r *GormChannelRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.ClinicalChannel, error) {
	var rows []models.ClinicalChannelModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.ClinicalChannelModel{}), filter)
	query = paginate(query, filter, ChannelSortFields, "name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]partner.ClinicalChannel, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts channels matching the filter
func (r *GormChannelRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.ClinicalChannelModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsByCode checks whether a channel code is taken
func (r *GormChannelRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.ClinicalChannelModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a channel
func (r *GormChannelRepository) Save(ctx context.Context, channel *partner.ClinicalChannel) error {
	return Conn(ctx, r.db).Save(models.ClinicalChannelModelFromDomain(channel)).Error
}

func (r *GormChannelRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if kind, ok := filterString(filter.Filters, "kind"); ok {
		query = query.Where("kind = ?", kind)
	}
	if active, ok := filterBool(filter.Filters, "active"); ok {
		query = query.Where("active = ?", active)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where(`(LOWER(code) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

var _ partner.ChannelRepository = (*GormChannelRepository)(nil)
