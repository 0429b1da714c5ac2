package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrCapacityTooSmall = errors.New("max capacity cannot drop below current occupancy")
)

type Repository interface {
	// Event operations
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetEventWithSlots(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, activeOnly bool) ([]Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Slot operations
	CreateSlot(ctx context.Context, slot *Slot) error
	GetSlotByID(ctx context.Context, eventID, slotID uuid.UUID) (*Slot, error)
	ListSlotsByEvent(ctx context.Context, eventID uuid.UUID) ([]Slot, error)
	SetSlotClosed(ctx context.Context, eventID, slotID uuid.UUID, closed bool) error

	// UpdateSlotCapacity changes maxCapacity under the same row-lock
	// discipline as bookings so capacity edits cannot race a reservation.
	UpdateSlotCapacity(ctx context.Context, eventID, slotID uuid.UUID, maxCapacity int) (*Slot, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) GetEventWithSlots(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("time_label ASC")
		}).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListEvents(ctx context.Context, activeOnly bool) ([]Event, error) {
	var events []Event
	query := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("time_label ASC")
		}).
		Order("name ASC")

	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	err := query.Find(&events).Error
	return events, err
}

func (r *repository) UpdateEvent(ctx context.Context, event *Event) error {
	result := r.db.WithContext(ctx).Save(event)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) CreateSlot(ctx context.Context, slot *Slot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *repository) GetSlotByID(ctx context.Context, eventID, slotID uuid.UUID) (*Slot, error) {
	var slot Slot
	err := r.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", slotID, eventID).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repository) ListSlotsByEvent(ctx context.Context, eventID uuid.UUID) ([]Slot, error) {
	var slots []Slot
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("time_label ASC").
		Find(&slots).Error
	return slots, err
}

func (r *repository) SetSlotClosed(ctx context.Context, eventID, slotID uuid.UUID, closed bool) error {
	result := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ? AND event_id = ?", slotID, eventID).
		Update("is_closed", closed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// UpdateSlotCapacity locks the slot row, validates the new capacity
// against current occupancy, and writes it in the same transaction.
// Bookings lock the same row, so an edit can never race a reservation.
func (r *repository) UpdateSlotCapacity(ctx context.Context, eventID, slotID uuid.UUID, maxCapacity int) (*Slot, error) {
	var slot Slot

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND event_id = ?", slotID, eventID).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to lock slot: %w", err)
		}

		if maxCapacity < slot.BookedCount {
			return ErrCapacityTooSmall
		}

		slot.MaxCapacity = maxCapacity
		if err := tx.Model(&Slot{}).
			Where("id = ?", slot.ID).
			Update("max_capacity", maxCapacity).Error; err != nil {
			return fmt.Errorf("failed to update slot capacity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &slot, nil
}
