package persistence

import (
	"time"

	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// saveVersioned inserts model when its row does not exist yet, otherwise it
// updates the row guarded by the version the caller loaded. On update the
// version in row is bumped; callers copy it back to the aggregate.
func saveVersioned(db *gorm.DB, table any, model any, row *models.AggregateModel, message string) error {
	var count int64
	if err := db.Model(table).Where("id = ?", row.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return db.Create(model).Error
	}

	current := row.Version
	row.Version = current + 1
	row.UpdatedAt = time.Now()

	result := db.Model(table).
		Where("id = ? AND version = ?", row.ID, current).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", message)
	}
	return nil
}

// syncVersion copies persisted version fields back onto the aggregate
func syncVersion(agg *shared.BaseAggregateRoot, row *models.AggregateModel) {
	agg.Version = row.Version
	agg.UpdatedAt = row.UpdatedAt
}
