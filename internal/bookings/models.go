package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Status is the review state of a booking. Bookings are created pending
// and transition exactly once, by an admin decision.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Booking is one reserved seat in a slot, identified by the participant
// roll number within that slot. Per-slot uniqueness of the roll number is
// a defense-in-depth check; the event-wide ParticipantMarker is the
// authoritative duplicate guard.
type Booking struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;index;not null"`
	SlotID     uuid.UUID `json:"slot_id" gorm:"type:uuid;index;not null"`
	RollNumber string    `json:"roll_number" gorm:"size:40;not null"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	Email      string    `json:"email" gorm:"size:255;not null"`
	Phone      string    `json:"phone" gorm:"size:15;not null"`
	PaymentRef string    `json:"payment_ref" gorm:"size:100;not null"`
	Status     Status    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`

	ReviewedBy *uuid.UUID `json:"reviewed_by,omitempty" gorm:"type:uuid"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// ParticipantMarker proves that a roll number already holds a booking
// somewhere in the event. Created atomically with the Booking; removed
// when that booking is rejected.
type ParticipantMarker struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:uniq_participant_event"`
	RollNumber string    `json:"roll_number" gorm:"size:40;not null;uniqueIndex:uniq_participant_event"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// PaymentRecord marks an external payment reference as consumed. One
// reference buys exactly one booking, ever; rejection does not refund it.
type PaymentRecord struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	PaymentRef string    `json:"payment_ref" gorm:"size:100;not null;uniqueIndex:idx_payment_records_payment_ref"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null"`
	RollNumber string    `json:"roll_number" gorm:"size:40;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (ParticipantMarker) TableName() string {
	return "participant_markers"
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

func (b *Booking) IsRejected() bool {
	return b.Status == StatusRejected
}

// Participant carries the contact fields of a booking request.
type Participant struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	RollNumber string `json:"rollNumber" validate:"required"`
}

// BookingRequest is the registration API payload.
type BookingRequest struct {
	EventID     string      `json:"eventId"`
	SlotID      string      `json:"slotId"`
	Participant Participant `json:"participant"`
	PaymentRef  string      `json:"paymentRef" validate:"required,min=4,max=100"`
}

// BookingResult is returned on a committed reservation.
type BookingResult struct {
	BookingID      string `json:"bookingId"`
	RemainingSeats int    `json:"remainingSeats"`

	EventName string `json:"-"`
	SlotLabel string `json:"-"`
	Email     string `json:"-"`
}

// ReviewRequest is the admin confirm/reject payload.
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=confirm reject"`
}

// BookingListQuery filters admin booking listings.
type BookingListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed rejected"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}
