package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAdminUserRepository implements AdminUserRepository using GORM
type GormAdminUserRepository struct {
	db *gorm.DB
}

// NewGormAdminUserRepository creates a new GormAdminUserRepository
func NewGormAdminUserRepository(db *gorm.DB) *GormAdminUserRepository {
	return &GormAdminUserRepository{db: db}
}

// FindByID finds an admin user by ID
func (r *GormAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminUser, error) {
	var model models.AdminUserModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds an admin user by login email
func (r *GormAdminUserRepository) FindByEmail(ctx context.Context, email string) (*identity.AdminUser, error) {
	var model models.AdminUserModel
	if err := Conn(ctx, r.db).Where("email = ?", normalizeEmail(email)).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all admin users matching the filter
func (r *GormAdminUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.AdminUser, error) {
	var rows []models.AdminUserModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.AdminUserModel{}), filter)
	query = paginate(query, filter, AdminUserSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]identity.AdminUser, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts admin users matching the filter
func (r *GormAdminUserRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.AdminUserModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsByEmail checks whether the email is already taken
func (r *GormAdminUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.AdminUserModel{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates an admin user or updates it with optimistic locking
func (r *GormAdminUserRepository) Save(ctx context.Context, user *identity.AdminUser) error {
	model := models.AdminUserModelFromDomain(user)
	if err := saveVersioned(Conn(ctx, r.db), &models.AdminUserModel{}, model, &model.AggregateModel,
		"The user has been modified by another admin"); err != nil {
		return err
	}
	syncVersion(&user.BaseAggregateRoot, &model.AggregateModel)
	return nil
}

func (r *GormAdminUserRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if role, ok := filterString(filter.Filters, "role"); ok {
		query = query.Where("role = ?", role)
	}
	if status, ok := filterString(filter.Filters, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

var _ identity.AdminUserRepository = (*GormAdminUserRepository)(nil)
