package events

import (
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes workshops from games
type EventKind string

const (
	KindWorkshop EventKind = "workshop"
	KindGame     EventKind = "game"
)

func IsValidKind(kind string) bool {
	switch EventKind(kind) {
	case KindWorkshop, KindGame:
		return true
	default:
		return false
	}
}

// Event is a bookable festival activity with one or more time slots.
// Events are created by administrative seeding and are read-only to the
// booking flow.
type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Kind        EventKind `json:"kind" gorm:"type:varchar(20);not null;default:'workshop'"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"not null;check:price >= 0"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`

	Slots []Slot `json:"slots,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE;"`

	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Slot is a capacity-bounded time window within an Event.
//
// BookedCount is the single source of truth for occupancy. It is mutated
// only inside the booking transaction (increment) and the admin review
// transaction (decrement on reject), and always equals the count of
// non-rejected bookings under the slot.
type Slot struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID     uuid.UUID `json:"event_id" gorm:"type:uuid;index;not null;uniqueIndex:uniq_slot_label"`
	TimeLabel   string    `json:"time_label" gorm:"not null;size:100;uniqueIndex:uniq_slot_label"`
	MaxCapacity int       `json:"max_capacity" gorm:"not null;check:max_capacity > 0"`
	BookedCount int       `json:"booked_count" gorm:"not null;default:0;check:booked_count >= 0"`
	IsClosed    bool      `json:"is_closed" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RemainingSeats returns the free capacity of the slot, never negative.
func (s *Slot) RemainingSeats() int {
	remaining := s.MaxCapacity - s.BookedCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

// TableName specifies the table name for GORM
func (Slot) TableName() string {
	return "slots"
}

type CreateEventRequest struct {
	Name        string  `json:"name" binding:"required,min=3,max=255"`
	Kind        string  `json:"kind" binding:"required,oneof=workshop game"`
	Description string  `json:"description" binding:"max=2000"`
	Price       float64 `json:"price" binding:"min=0"`
}

type UpdateEventRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	IsActive    *bool    `json:"is_active"`
}

type CreateSlotRequest struct {
	TimeLabel   string `json:"time_label" binding:"required,min=2,max=100"`
	MaxCapacity int    `json:"max_capacity" binding:"required,min=1,max=10000"`
}

// UpdateSlotCapacityRequest changes a slot's maximum capacity. The new
// value may never drop below the current occupancy.
type UpdateSlotCapacityRequest struct {
	MaxCapacity int `json:"max_capacity" binding:"required,min=1,max=10000"`
}

type UpdateSlotStateRequest struct {
	IsClosed *bool `json:"is_closed" binding:"required"`
}

type SlotResponse struct {
	ID             string `json:"id"`
	EventID        string `json:"event_id"`
	TimeLabel      string `json:"time_label"`
	MaxCapacity    int    `json:"max_capacity"`
	BookedCount    int    `json:"booked_count"`
	RemainingSeats int    `json:"remaining_seats"`
	IsClosed       bool   `json:"is_closed"`
}

type EventResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Kind        EventKind      `json:"kind"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	IsActive    bool           `json:"is_active"`
	Slots       []SlotResponse `json:"slots"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ToResponse converts a Slot to its API representation
func (s *Slot) ToResponse() SlotResponse {
	return SlotResponse{
		ID:             s.ID.String(),
		EventID:        s.EventID.String(),
		TimeLabel:      s.TimeLabel,
		MaxCapacity:    s.MaxCapacity,
		BookedCount:    s.BookedCount,
		RemainingSeats: s.RemainingSeats(),
		IsClosed:       s.IsClosed,
	}
}

// ToResponse converts an Event to its API representation
func (e *Event) ToResponse() EventResponse {
	slots := make([]SlotResponse, 0, len(e.Slots))
	for i := range e.Slots {
		slots = append(slots, e.Slots[i].ToResponse())
	}

	return EventResponse{
		ID:          e.ID.String(),
		Name:        e.Name,
		Kind:        e.Kind,
		Description: e.Description,
		Price:       e.Price,
		IsActive:    e.IsActive,
		Slots:       slots,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
