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

// GormPDRepository implements PDRepository using GORM
type GormPDRepository struct {
	db *gorm.DB
}

// NewGormPDRepository creates a new GormPDRepository
func NewGormPDRepository(db *gorm.DB) *GormPDRepository {
	return &GormPDRepository{db: db}
}

// FindByID finds a PD by ID
func (r *GormPDRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.PD, error) {
	var model models.PDModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a PD by referral code
func (r *GormPDRepository) FindByCode(ctx context.Context, code string) (*partner.PD, error) {
	var model models.PDModel
	if err := Conn(ctx, r.db).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a PD by login email
func (r *GormPDRepository) FindByEmail(ctx context.Context, email string) (*partner.PD, error) {
	var model models.PDModel
	if err := Conn(ctx, r.db).
		Where("email = ?", normalizeEmail(email)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all PDs matching the filter
func (r *GormPDRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.PD, error) {
	var rows []models.PDModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.PDModel{}), filter)
	query = paginate(query, filter, PDSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return pdsToDomain(rows), nil
}

// FindByIDs loads several PDs at once
func (r *GormPDRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.PD, error) {
	if len(ids) == 0 {
		return []partner.PD{}, nil
	}
	var rows []models.PDModel
	if err := Conn(ctx, r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return pdsToDomain(rows), nil
}

// Count counts PDs matching the filter
func (r *GormPDRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.PDModel{}), filter).Count(&count).Error
	return count, err
}

// CountByStatus counts PDs in a status
func (r *GormPDRepository) CountByStatus(ctx context.Context, status partner.PDStatus) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).Model(&models.PDModel{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ExistsByCode checks for a code collision
func (r *GormPDRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.PDModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByEmail checks whether the email is already taken
func (r *GormPDRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.PDModel{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates a PD or updates it with optimistic locking
func (r *GormPDRepository) Save(ctx context.Context, pd *partner.PD) error {
	model := models.PDModelFromDomain(pd)
	if err := saveVersioned(Conn(ctx, r.db), &models.PDModel{}, model, &model.AggregateModel,
		"The PD record has been modified by another user"); err != nil {
		return err
	}
	syncVersion(&pd.BaseAggregateRoot, &model.AggregateModel)
	return nil
}

func (r *GormPDRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filterString(filter.Filters, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if city, ok := filterString(filter.Filters, "city"); ok {
		query = query.Where("city = ?", shared.NormalizeCity(city))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where(
			`(LOWER(code) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}
	return query
}

func pdsToDomain(rows []models.PDModel) []partner.PD {
	out := make([]partner.PD, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ partner.PDRepository = (*GormPDRepository)(nil)
