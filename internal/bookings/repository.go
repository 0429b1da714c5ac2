package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"festreg/internal/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationParams are the validated inputs of one booking attempt.
type AllocationParams struct {
	EventID     uuid.UUID
	SlotID      uuid.UUID
	Participant Participant
	PaymentRef  string
}

// AllocationResult reports a committed reservation.
type AllocationResult struct {
	Booking        *Booking
	RemainingSeats int
	EventName      string
	SlotLabel      string
}

// ReviewResult reports a committed admin decision.
type ReviewResult struct {
	Booking   *Booking
	EventName string
	SlotLabel string
}

// Repository is the allocator's data-access contract. Allocate performs
// the whole booking transaction; everything else is read-side or the
// admin review path.
type Repository interface {
	// Allocate runs capacity check, duplicate guards, payment consumption
	// and all writes as one atomic transaction. It returns a typed *Error
	// on every business-rule failure and leaves no partial state behind.
	Allocate(ctx context.Context, params AllocationParams) (*AllocationResult, error)

	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, eventID uuid.UUID, slotID *uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Review confirms or rejects a pending booking. Rejection frees the
	// seat and removes the participant marker in the same transaction.
	Review(ctx context.Context, bookingID uuid.UUID, approve bool, adminID uuid.UUID) (*ReviewResult, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Allocate implements the booking transaction:
//
//	lock slot row -> check closed -> check event-wide marker ->
//	check payment reference -> check per-slot duplicate ->
//	check occupancy -> write booking + marker + payment + counter
//
// The slot row lock serializes concurrent attempts on the same slot, so
// at most one transaction can win the last seat. Unique indexes on
// markers, payments and per-slot roll numbers back the in-transaction
// checks for writers that contend on different slots of one event.
func (r *repository) Allocate(ctx context.Context, params AllocationParams) (*AllocationResult, error) {
	var result AllocationResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Event: must exist and be open for registration.
		var event events.Event
		if err := tx.Where("id = ?", params.EventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "event not found")
			}
			return fmt.Errorf("failed to load event: %w", err)
		}
		if !event.IsActive {
			return NewError(KindNotFound, "event is not open for registration")
		}

		// Slot: locked for the duration of the transaction.
		var slot events.Slot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND event_id = ?", params.SlotID, params.EventID).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "slot not found")
			}
			return fmt.Errorf("failed to lock slot: %w", err)
		}
		if slot.IsClosed {
			return NewError(KindSlotClosed, "slot is closed for registration")
		}

		// Duplicate guard: the event-wide marker is authoritative.
		var markerCount int64
		err = tx.Model(&ParticipantMarker{}).
			Where("event_id = ? AND roll_number = ?", params.EventID, params.Participant.RollNumber).
			Count(&markerCount).Error
		if err != nil {
			return fmt.Errorf("failed to check participant marker: %w", err)
		}
		if markerCount > 0 {
			return NewError(KindAlreadyRegistered, "participant already registered for this event")
		}

		// Payment consumption guard.
		var paymentCount int64
		err = tx.Model(&PaymentRecord{}).
			Where("payment_ref = ?", params.PaymentRef).
			Count(&paymentCount).Error
		if err != nil {
			return fmt.Errorf("failed to check payment record: %w", err)
		}
		if paymentCount > 0 {
			return NewError(KindPaymentAlreadyUsed, "payment reference already used")
		}

		// Per-slot duplicate check, redundant with the marker but kept as
		// a belt-and-suspenders guard.
		var slotDupCount int64
		err = tx.Model(&Booking{}).
			Where("slot_id = ? AND roll_number = ? AND status <> ?", params.SlotID, params.Participant.RollNumber, StatusRejected).
			Count(&slotDupCount).Error
		if err != nil {
			return fmt.Errorf("failed to check slot bookings: %w", err)
		}
		if slotDupCount > 0 {
			return NewError(KindAlreadyRegistered, "participant already registered for this slot")
		}

		// Capacity ledger: BookedCount on the locked row is the source of
		// truth for occupancy.
		if slot.BookedCount >= slot.MaxCapacity {
			return NewError(KindSlotFull, "slot is full")
		}

		booking := &Booking{
			EventID:    params.EventID,
			SlotID:     params.SlotID,
			RollNumber: params.Participant.RollNumber,
			Name:       params.Participant.Name,
			Email:      params.Participant.Email,
			Phone:      params.Participant.Phone,
			PaymentRef: params.PaymentRef,
			Status:     StatusPending,
		}
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		marker := &ParticipantMarker{
			EventID:    params.EventID,
			RollNumber: params.Participant.RollNumber,
		}
		if err := tx.Create(marker).Error; err != nil {
			return fmt.Errorf("failed to create participant marker: %w", err)
		}

		payment := &PaymentRecord{
			PaymentRef: params.PaymentRef,
			EventID:    params.EventID,
			RollNumber: params.Participant.RollNumber,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment record: %w", err)
		}

		newOccupancy := slot.BookedCount + 1
		err = tx.Model(&events.Slot{}).
			Where("id = ?", slot.ID).
			Update("booked_count", newOccupancy).Error
		if err != nil {
			return fmt.Errorf("failed to update slot occupancy: %w", err)
		}

		result = AllocationResult{
			Booking:        booking,
			RemainingSeats: slot.MaxCapacity - newOccupancy,
			EventName:      event.Name,
			SlotLabel:      slot.TimeLabel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *repository) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "booking not found")
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListBookings(ctx context.Context, eventID uuid.UUID, slotID *uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	if query.Limit <= 0 {
		query.Limit = 50
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("event_id = ?", eventID)

	if slotID != nil {
		baseQuery = baseQuery.Where("slot_id = ?", *slotID)
	}
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Order("created_at ASC").
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// Review confirms or rejects a pending booking. The booking and its slot
// are locked in one transaction so a rejection's occupancy decrement
// cannot race a concurrent reservation on the same slot.
func (r *repository) Review(ctx context.Context, bookingID uuid.UUID, approve bool, adminID uuid.UUID) (*ReviewResult, error) {
	var result ReviewResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bookingID).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "booking not found")
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if !booking.IsPending() {
			return NewError(KindInvalidArgument, "booking has already been reviewed")
		}

		now := time.Now().UTC()
		newStatus := StatusConfirmed
		if !approve {
			newStatus = StatusRejected
		}

		updates := map[string]interface{}{
			"status":      newStatus,
			"reviewed_by": adminID,
			"reviewed_at": now,
		}
		if err := tx.Model(&Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}

		if !approve {
			// Rejection frees the seat and lets the participant register
			// again; the payment reference stays consumed.
			var slot events.Slot
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", booking.SlotID).
				First(&slot).Error
			if err != nil {
				return fmt.Errorf("failed to lock slot: %w", err)
			}

			if slot.BookedCount > 0 {
				err = tx.Model(&events.Slot{}).
					Where("id = ?", slot.ID).
					Update("booked_count", slot.BookedCount-1).Error
				if err != nil {
					return fmt.Errorf("failed to release slot seat: %w", err)
				}
			}

			err = tx.Where("event_id = ? AND roll_number = ?", booking.EventID, booking.RollNumber).
				Delete(&ParticipantMarker{}).Error
			if err != nil {
				return fmt.Errorf("failed to remove participant marker: %w", err)
			}
		}

		booking.Status = newStatus
		booking.ReviewedBy = &adminID
		booking.ReviewedAt = &now

		var event events.Event
		if err := tx.Where("id = ?", booking.EventID).First(&event).Error; err == nil {
			result.EventName = event.Name
		}
		var slot events.Slot
		if err := tx.Where("id = ?", booking.SlotID).First(&slot).Error; err == nil {
			result.SlotLabel = slot.TimeLabel
		}

		result.Booking = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
