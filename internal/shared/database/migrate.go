package database

import (
	"festreg/internal/bookings"
	"festreg/internal/events"
	"festreg/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4() defaults need the extension
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&events.Slot{},
		&bookings.Booking{},
		&bookings.ParticipantMarker{},
		&bookings.PaymentRecord{},
	)
}
