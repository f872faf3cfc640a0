package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormApplicationRepository implements ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// FindByID finds an application by ID
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.PDApplication, error) {
	var model models.PDApplicationModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all applications matching the filter
func (r *GormApplicationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.PDApplication, error) {
	var rows []models.PDApplicationModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.PDApplicationModel{}), filter)
	query = paginate(query, filter, ApplicationSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return applicationsToDomain(rows), nil
}

// Count counts applications matching the filter
func (r *GormApplicationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.PDApplicationModel{}), filter).Count(&count).Error
	return count, err
}

// CountByStatus counts applications in a status
func (r *GormApplicationRepository) CountByStatus(ctx context.Context, status partner.ApplicationStatus) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).Model(&models.PDApplicationModel{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ExistsOpenByEmail reports whether a draft or submitted application exists for email
func (r *GormApplicationRepository) ExistsOpenByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.PDApplicationModel{}).
		Where("email = ? AND status IN ?", normalizeEmail(email),
			[]partner.ApplicationStatus{partner.ApplicationStatusDraft, partner.ApplicationStatusSubmitted}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindStaleDrafts lists drafts not updated since cutoff, oldest first
func (r *GormApplicationRepository) FindStaleDrafts(ctx context.Context, cutoff time.Time, limit int) ([]partner.PDApplication, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.PDApplicationModel
	if err := Conn(ctx, r.db).
		Where("status = ? AND updated_at < ?", partner.ApplicationStatusDraft, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return applicationsToDomain(rows), nil
}

// Save creates an application or updates it with optimistic locking
func (r *GormApplicationRepository) Save(ctx context.Context, app *partner.PDApplication) error {
	model := models.PDApplicationModelFromDomain(app)
	if err := saveVersioned(Conn(ctx, r.db), &models.PDApplicationModel{}, model, &model.AggregateModel,
		"The application has been modified by another request"); err != nil {
		return err
	}
	syncVersion(&app.BaseAggregateRoot, &model.AggregateModel)
	return nil
}

func (r *GormApplicationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filterString(filter.Filters, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if city, ok := filterString(filter.Filters, "city"); ok {
		query = query.Where("city = ?", shared.NormalizeCity(city))
	}
	return query
}

func applicationsToDomain(rows []models.PDApplicationModel) []partner.PDApplication {
	out := make([]partner.PDApplication, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ partner.ApplicationRepository = (*GormApplicationRepository)(nil)
