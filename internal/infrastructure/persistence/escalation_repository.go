package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var openEscalationStatuses = []casework.EscalationStatus{
	casework.EscalationStatusOpen,
	casework.EscalationStatusAcknowledged,
}

// GormEscalationRepository implements EscalationRepository using GORM
type GormEscalationRepository struct {
	db *gorm.DB
}

// NewGormEscalationRepository creates a new GormEscalationRepository
func NewGormEscalationRepository(db *gorm.DB) *GormEscalationRepository {
	return &GormEscalationRepository{db: db}
}

// FindByID finds an escalation by ID
func (r *GormEscalationRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.Escalation, error) {
	var model models.EscalationModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCase lists a case's escalations, newest first
func (r *GormEscalationRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]casework.Escalation, error) {
	var rows []models.EscalationModel
	if err := Conn(ctx, r.db).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return escalationsToDomain(rows), nil
}

// FindAll finds all escalations matching the filter
func (r *GormEscalationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.Escalation, error) {
	var rows []models.EscalationModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.EscalationModel{}), filter)
	query = paginate(query, filter, EscalationSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return escalationsToDomain(rows), nil
}

// Count counts escalations matching the filter
func (r *GormEscalationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(Conn(ctx, r.db).Model(&models.EscalationModel{}), filter).Count(&count).Error
	return count, err
}

// CountOpen counts escalations that are open or acknowledged
func (r *GormEscalationRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).
		Model(&models.EscalationModel{}).
		Where("status IN ?", openEscalationStatuses).
		Count(&count).Error
	return count, err
}

// HasOpenSystemEscalation reports whether the system already has an
// unresolved escalation against the case
func (r *GormEscalationRepository) HasOpenSystemEscalation(ctx context.Context, caseID uuid.UUID) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.EscalationModel{}).
		Where("case_id = ? AND raised_by_type = ? AND status IN ?", caseID, shared.ActorTypeSystem, openEscalationStatuses).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an escalation
func (r *GormEscalationRepository) Save(ctx context.Context, e *casework.Escalation) error {
	return Conn(ctx, r.db).Save(models.EscalationModelFromDomain(e)).Error
}

func (r *GormEscalationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	f := filter.Filters
	if status, ok := filterString(f, "status"); ok {
		if status == "unresolved" {
			query = query.Where("status IN ?", openEscalationStatuses)
		} else {
			query = query.Where("status = ?", status)
		}
	}
	if priority, ok := filterString(f, "priority"); ok {
		query = query.Where("priority = ?", priority)
	}
	if caseID, ok := filterUUID(f, "case_id"); ok {
		query = query.Where("case_id = ?", caseID)
	}
	return query
}

func escalationsToDomain(rows []models.EscalationModel) []casework.Escalation {
	out := make([]casework.Escalation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ casework.EscalationRepository = (*GormEscalationRepository)(nil)
