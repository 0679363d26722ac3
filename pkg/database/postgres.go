package database

import (
	"fmt"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database, runs migrations and applies the indexes
// AutoMigrate cannot express.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	// one active booking per user per event; cancelled rows stay behind
	// for rebooking and payment history
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_active
		ON bookings (event_id, user_id)
		WHERE status <> 'CANCELLED'
	`).Error
	if err != nil {
		return nil, fmt.Errorf("create booking index: %w", err)
	}

	return db, nil
}
