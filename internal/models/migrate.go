package models

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&EventType{},
		&Event{},
		&Block{},
		&Booking{},
		&WaitingListUser{},
		&PaypalBookingTransaction{},
		&PaypalBlockTransaction{},
		&ActivityLog{},
		&Page{},
		&Picture{},
		&Category{},
		&Image{},
		&Review{},
		&Location{},
		&WeeklySession{},
	)
}
