package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the database constraints that back the
// in-transaction duplicate guards. AutoMigrate cannot express the partial
// unique index on bookings: a rejected booking frees the (slot, roll)
// pair for re-registration, so only non-rejected rows participate.
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_booking_slot_roll
		ON bookings (slot_id, roll_number)
		WHERE status <> 'rejected';
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_event_status
		ON bookings (event_id, status);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_slot_status
		ON bookings (slot_id, status);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
