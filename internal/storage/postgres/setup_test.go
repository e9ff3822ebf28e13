package postgres

import (
	"testing"

	"github.com/fieldserve/jobrunner/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Disable logs during tests
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.QueuedJob{},
		&models.JobRun{},
		&models.AuditLog{},
		&models.SecurityEvent{},
	)
	require.NoError(t, err)

	return db
}
