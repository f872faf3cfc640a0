package persistence

import (
	"testing"
	"time"

	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	shared.PasswordCost = bcrypt.MinCost
}

// newTestDB opens an in-memory sqlite database with every table migrated.
// A single connection keeps all queries on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newTestCase(t *testing.T, lastName, city string) *casework.Case {
	t.Helper()
	patient, err := casework.NewPatient("Jane", lastName, lastName+"@example.com", "+44 7700 900123",
		time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC), city, "ab1 2cd")
	require.NoError(t, err)
	code, err := casework.NewTrackingCode()
	require.NoError(t, err)
	c, err := casework.NewCase(code, patient, "cardiology", casework.UrgencyRoutine, "chest pain", true, "")
	require.NoError(t, err)
	return c
}
