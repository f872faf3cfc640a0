package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCaseRepository implements CaseRepository using GORM
type GormCaseRepository struct {
	db *gorm.DB
}

// NewGormCaseRepository creates a new GormCaseRepository
func NewGormCaseRepository(db *gorm.DB) *GormCaseRepository {
	return &GormCaseRepository{db: db}
}

// FindByID finds a case by ID
func (r *GormCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.Case, error) {
	var model models.CaseModel
	if err := Conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByTrackingCode finds a case by its tracking code
func (r *GormCaseRepository) FindByTrackingCode(ctx context.Context, code string) (*casework.Case, error) {
	var model models.CaseModel
	if err := Conn(ctx, r.db).
		Where("tracking_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all cases matching the filter
func (r *GormCaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.Case, error) {
	var rows []models.CaseModel
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.CaseModel{}), filter)
	query = paginate(query, filter, CaseSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return casesToDomain(rows), nil
}

// Count counts cases matching the filter
func (r *GormCaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(Conn(ctx, r.db).Model(&models.CaseModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindPooledBefore returns cases waiting in the pool since before the cutoff
// that have no open system escalation, oldest first
func (r *GormCaseRepository) FindPooledBefore(ctx context.Context, poolID uuid.UUID, cutoff time.Time, limit int) ([]casework.Case, error) {
	var rows []models.CaseModel
	if err := Conn(ctx, r.db).
		Where("status = ? AND pool_id = ? AND pooled_at < ?", casework.CaseStatusPooled, poolID, cutoff).
		Where(`NOT EXISTS (SELECT 1 FROM escalations e WHERE e.case_id = cases.id AND e.raised_by_type = ? AND e.status IN ?)`,
			shared.ActorTypeSystem, openEscalationStatuses).
		Order("pooled_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return casesToDomain(rows), nil
}

// CountByStatus returns the number of cases in each status
func (r *GormCaseRepository) CountByStatus(ctx context.Context) (map[casework.CaseStatus]int64, error) {
	var results []struct {
		Status casework.CaseStatus
		Count  int64
	}
	if err := Conn(ctx, r.db).
		Model(&models.CaseModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	counts := make(map[casework.CaseStatus]int64, len(results))
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, nil
}

// ExistsByTrackingCode checks whether a tracking code is taken
func (r *GormCaseRepository) ExistsByTrackingCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := Conn(ctx, r.db).
		Model(&models.CaseModel{}).
		Where("tracking_code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new case
func (r *GormCaseRepository) Save(ctx context.Context, c *casework.Case) error {
	return Conn(ctx, r.db).Create(models.CaseModelFromDomain(c)).Error
}

// SaveWithLock updates a case with optimistic locking (version check)
func (r *GormCaseRepository) SaveWithLock(ctx context.Context, c *casework.Case) error {
	current := c.Version
	model := models.CaseModelFromDomain(c)
	model.Version = current + 1
	model.UpdatedAt = time.Now()

	db := Conn(ctx, r.db)
	result := db.Model(&models.CaseModel{}).
		Where("id = ? AND version = ?", c.ID, current).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return versionConflict(db, &models.CaseModel{}, c.ID, "The case has been modified by another user")
	}

	c.Version = model.Version
	c.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormCaseRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	f := filter.Filters
	if status, ok := filterString(f, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if statuses, ok := filterStrings(f, "statuses"); ok {
		query = query.Where("status IN ?", statuses)
	}
	if city, ok := filterString(f, "city"); ok {
		query = query.Where("city = ?", shared.NormalizeCity(city))
	}
	if urgency, ok := filterString(f, "urgency"); ok {
		query = query.Where("urgency = ?", urgency)
	}
	for _, key := range []string{"pd_id", "pool_id", "channel_id", "provider_id"} {
		if id, ok := filterUUID(f, key); ok {
			query = query.Where(key+" = ?", id)
		}
	}
	query = applyDateRange(query, f, "created_at")

	// Patient identifiers are only searchable when the caller may see them
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		if withPII, _ := filterBool(f, "search_pii"); withPII {
			query = query.Where(
				`(LOWER(tracking_code) LIKE ? ESCAPE '\' OR LOWER(patient_last_name) LIKE ? ESCAPE '\' OR LOWER(patient_email) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern,
			)
		} else {
			query = query.Where(`LOWER(tracking_code) LIKE ? ESCAPE '\'`, pattern)
		}
	}
	return query
}

func casesToDomain(rows []models.CaseModel) []casework.Case {
	cases := make([]casework.Case, len(rows))
	for i := range rows {
		cases[i] = *rows[i].ToDomain()
	}
	return cases
}

// versionConflict distinguishes a missing row from a stale version after an
// optimistic update touched nothing.
func versionConflict(db *gorm.DB, model any, id uuid.UUID, message string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.NewDomainError("CONCURRENT_MODIFICATION", message)
}

var _ casework.CaseRepository = (*GormCaseRepository)(nil)
