package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"festreg/internal/shared/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		MaxTxRetries:      3,
		RollNumberPattern: `^[A-Za-z][A-Za-z0-9]{2,19}$`,
	}
}

func validParticipant() Participant {
	return Participant{
		Name:       "Asha Rao",
		Email:      "asha@example.com",
		Phone:      "9876543210",
		RollNumber: "CS21B042",
	}
}

// recordingNotifier counts dispatches and remembers the last one.
type recordingNotifier struct {
	mu    sync.Mutex
	calls int
	last  StatusNotification
	err   error
}

func (n *recordingNotifier) BookingStatusChanged(_ context.Context, notification StatusNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.last = notification
	return n.err
}

// recordingCache counts invalidations.
type recordingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *recordingCache) InvalidateListingCache(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

// scriptedRepo returns a fixed sequence of errors from Allocate before
// succeeding, and counts every call.
type scriptedRepo struct {
	mu     sync.Mutex
	errs   []error
	calls  int
	result AllocationResult
}

func (r *scriptedRepo) Allocate(context.Context, AllocationParams) (*AllocationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return nil, err
	}
	result := r.result
	return &result, nil
}

func (r *scriptedRepo) GetBooking(context.Context, uuid.UUID) (*Booking, error) {
	return nil, NewError(KindNotFound, "booking not found")
}

func (r *scriptedRepo) ListBookings(context.Context, uuid.UUID, *uuid.UUID, BookingListQuery) ([]Booking, int64, error) {
	return nil, 0, nil
}

func (r *scriptedRepo) Review(context.Context, uuid.UUID, bool, uuid.UUID) (*ReviewResult, error) {
	return nil, NewError(KindNotFound, "booking not found")
}

func (r *scriptedRepo) allocateCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestService(t *testing.T, repo Repository, notifier Notifier, cache ListingCache) Service {
	t.Helper()
	svc, err := NewService(repo, testBookingConfig(), notifier, cache)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsBadRollPattern(t *testing.T) {
	cfg := testBookingConfig()
	cfg.RollNumberPattern = `([`

	_, err := NewService(&scriptedRepo{}, cfg, nil, nil)
	require.Error(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*BookingRequest)
		wantFields []string
	}{
		{
			name:       "malformed event id",
			mutate:     func(r *BookingRequest) { r.EventID = "not-a-uuid" },
			wantFields: []string{"eventId"},
		},
		{
			name:       "malformed slot id",
			mutate:     func(r *BookingRequest) { r.SlotID = "42" },
			wantFields: []string{"slotId"},
		},
		{
			name:       "missing name",
			mutate:     func(r *BookingRequest) { r.Participant.Name = "" },
			wantFields: []string{"participant.name"},
		},
		{
			name:       "bad email",
			mutate:     func(r *BookingRequest) { r.Participant.Email = "not-an-email" },
			wantFields: []string{"participant.email"},
		},
		{
			name:       "short phone",
			mutate:     func(r *BookingRequest) { r.Participant.Phone = "12345" },
			wantFields: []string{"participant.phone"},
		},
		{
			name:       "digits-only roll number",
			mutate:     func(r *BookingRequest) { r.Participant.RollNumber = "12345" },
			wantFields: []string{"participant.rollNumber"},
		},
		{
			name:       "missing payment reference",
			mutate:     func(r *BookingRequest) { r.PaymentRef = "" },
			wantFields: []string{"paymentRef"},
		},
		{
			name: "multiple violations listed together",
			mutate: func(r *BookingRequest) {
				r.EventID = "nope"
				r.Participant.Phone = "abc"
				r.PaymentRef = "x"
			},
			wantFields: []string{"eventId", "participant.phone", "paymentRef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &scriptedRepo{}
			svc := newTestService(t, repo, nil, nil)

			req := BookingRequest{
				EventID:     uuid.New().String(),
				SlotID:      uuid.New().String(),
				Participant: validParticipant(),
				PaymentRef:  "PAY-2026-0001",
			}
			tt.mutate(&req)

			_, err := svc.CreateBooking(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, KindInvalidArgument, KindOf(err))
			for _, field := range tt.wantFields {
				assert.Contains(t, err.Error(), field)
			}

			// Invalid requests must never reach storage.
			assert.Zero(t, repo.allocateCalls())
		})
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	bookingID := uuid.New()
	repo := &scriptedRepo{
		result: AllocationResult{
			Booking: &Booking{
				ID:         bookingID,
				RollNumber: "CS21B042",
				Email:      "asha@example.com",
				Status:     StatusPending,
			},
			RemainingSeats: 7,
			EventName:      "Pottery Workshop",
			SlotLabel:      "Sat 10:00",
		},
	}
	notifier := &recordingNotifier{}
	cache := &recordingCache{}
	svc := newTestService(t, repo, notifier, cache)

	result, err := svc.CreateBooking(context.Background(), BookingRequest{
		EventID:     uuid.New().String(),
		SlotID:      uuid.New().String(),
		Participant: validParticipant(),
		PaymentRef:  "PAY-2026-0001",
	})
	require.NoError(t, err)

	assert.Equal(t, bookingID.String(), result.BookingID)
	assert.Equal(t, 7, result.RemainingSeats)

	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "asha@example.com", notifier.last.Email)
	assert.Equal(t, "Pottery Workshop", notifier.last.EventName)
	assert.Equal(t, StatusPending, notifier.last.Status)
}

func TestCreateBookingNotifierFailureDoesNotFailBooking(t *testing.T) {
	repo := &scriptedRepo{
		result: AllocationResult{
			Booking:        &Booking{ID: uuid.New(), Status: StatusPending},
			RemainingSeats: 3,
		},
	}
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc := newTestService(t, repo, notifier, nil)

	result, err := svc.CreateBooking(context.Background(), BookingRequest{
		EventID:     uuid.New().String(),
		SlotID:      uuid.New().String(),
		Participant: validParticipant(),
		PaymentRef:  "PAY-2026-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.RemainingSeats)
}

func TestCreateBookingBusinessErrorsAreTerminal(t *testing.T) {
	kinds := []Kind{
		KindNotFound,
		KindSlotClosed,
		KindSlotFull,
		KindAlreadyRegistered,
		KindPaymentAlreadyUsed,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			repo := &scriptedRepo{errs: []error{NewError(kind, "rejected")}}
			svc := newTestService(t, repo, nil, nil)

			_, err := svc.CreateBooking(context.Background(), BookingRequest{
				EventID:     uuid.New().String(),
				SlotID:      uuid.New().String(),
				Participant: validParticipant(),
				PaymentRef:  "PAY-2026-0001",
			})
			require.Error(t, err)
			assert.Equal(t, kind, KindOf(err))

			// Business failures are never retried.
			assert.Equal(t, 1, repo.allocateCalls())
		})
	}
}

func TestCreateBookingRetriesTransientConflicts(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001"}
	deadlock := &pgconn.PgError{Code: "40P01"}

	repo := &scriptedRepo{
		errs: []error{
			fmt.Errorf("allocate: %w", serialization),
			fmt.Errorf("allocate: %w", deadlock),
		},
		result: AllocationResult{
			Booking:        &Booking{ID: uuid.New(), Status: StatusPending},
			RemainingSeats: 1,
		},
	}
	svc := newTestService(t, repo, nil, nil)

	result, err := svc.CreateBooking(context.Background(), BookingRequest{
		EventID:     uuid.New().String(),
		SlotID:      uuid.New().String(),
		Participant: validParticipant(),
		PaymentRef:  "PAY-2026-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RemainingSeats)
	assert.Equal(t, 3, repo.allocateCalls())
}

func TestCreateBookingRetryExhaustionReportsInternal(t *testing.T) {
	conflict := &pgconn.PgError{Code: "40001"}
	repo := &scriptedRepo{
		errs: []error{conflict, conflict, conflict, conflict},
	}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.CreateBooking(context.Background(), BookingRequest{
		EventID:     uuid.New().String(),
		SlotID:      uuid.New().String(),
		Participant: validParticipant(),
		PaymentRef:  "PAY-2026-0001",
	})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, 3, repo.allocateCalls())
}

// A writer on another slot can win the duplicate or payment guard race
// after the Count checks pass; the loser surfaces from the backing
// unique index and must still report the business kind, not Internal.
func TestCreateBookingUniqueViolationMapsToBusinessKind(t *testing.T) {
	tests := []struct {
		constraint string
		wantKind   Kind
	}{
		{"uniq_participant_event", KindAlreadyRegistered},
		{"uniq_booking_slot_roll", KindAlreadyRegistered},
		{"idx_payment_records_payment_ref", KindPaymentAlreadyUsed},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo := &scriptedRepo{
				errs: []error{fmt.Errorf("failed to create participant marker: %w",
					&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})},
			}
			svc := newTestService(t, repo, nil, nil)

			_, err := svc.CreateBooking(context.Background(), BookingRequest{
				EventID:     uuid.New().String(),
				SlotID:      uuid.New().String(),
				Participant: validParticipant(),
				PaymentRef:  "PAY-2026-0001",
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))

			// Losing the guard race is terminal, never retried.
			assert.Equal(t, 1, repo.allocateCalls())
		})
	}
}

func TestCreateBookingNonRetryableStorageError(t *testing.T) {
	repo := &scriptedRepo{errs: []error{errors.New("connection refused")}}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.CreateBooking(context.Background(), BookingRequest{
		EventID:     uuid.New().String(),
		SlotID:      uuid.New().String(),
		Participant: validParticipant(),
		PaymentRef:  "PAY-2026-0001",
	})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, 1, repo.allocateCalls())
}
