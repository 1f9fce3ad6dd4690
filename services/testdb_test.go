package services

import (
	"fmt"
	"strings"
	"testing"

	"bemymentor-server/models"
	"bemymentor-server/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB gives each test its own in-memory sqlite database, migrated
// with the full model set, and points the package-level handle at it.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Mentor{},
		&models.Booking{},
		&models.AvailableSlot{},
		&models.BlockedSlot{},
		&models.UserSubscription{},
		&models.Review{},
		&models.Message{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	storage.DB = db
	return db
}
