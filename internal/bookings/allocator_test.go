package bookings

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Repository that enforces the allocation
// contract under a single mutex. It stands in for Postgres in tests that
// exercise the allocator's concurrency and atomicity guarantees.
type memStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]*memEvent
	slots    map[uuid.UUID]*memSlot
	bookings map[uuid.UUID]*Booking
	markers  map[string]bool
	payments map[string]bool
}

type memEvent struct {
	name   string
	active bool
}

type memSlot struct {
	eventID uuid.UUID
	label   string
	max     int
	booked  int
	closed  bool
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[uuid.UUID]*memEvent),
		slots:    make(map[uuid.UUID]*memSlot),
		bookings: make(map[uuid.UUID]*Booking),
		markers:  make(map[string]bool),
		payments: make(map[string]bool),
	}
}

func (s *memStore) addEvent(name string, active bool) uuid.UUID {
	id := uuid.New()
	s.events[id] = &memEvent{name: name, active: active}
	return id
}

func (s *memStore) addSlot(eventID uuid.UUID, label string, max, booked int, closed bool) uuid.UUID {
	id := uuid.New()
	s.slots[id] = &memSlot{eventID: eventID, label: label, max: max, booked: booked, closed: closed}
	return id
}

func markerKey(eventID uuid.UUID, roll string) string {
	return eventID.String() + "|" + roll
}

func (s *memStore) Allocate(_ context.Context, params AllocationParams) (*AllocationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[params.EventID]
	if !ok || !event.active {
		return nil, NewError(KindNotFound, "event not found")
	}

	slot, ok := s.slots[params.SlotID]
	if !ok || slot.eventID != params.EventID {
		return nil, NewError(KindNotFound, "slot not found")
	}
	if slot.closed {
		return nil, NewError(KindSlotClosed, "slot is closed for registration")
	}

	if s.markers[markerKey(params.EventID, params.Participant.RollNumber)] {
		return nil, NewError(KindAlreadyRegistered, "participant already registered for this event")
	}
	if s.payments[params.PaymentRef] {
		return nil, NewError(KindPaymentAlreadyUsed, "payment reference already used")
	}
	if slot.booked >= slot.max {
		return nil, NewError(KindSlotFull, "slot is full")
	}

	booking := &Booking{
		ID:         uuid.New(),
		EventID:    params.EventID,
		SlotID:     params.SlotID,
		RollNumber: params.Participant.RollNumber,
		Name:       params.Participant.Name,
		Email:      params.Participant.Email,
		Phone:      params.Participant.Phone,
		PaymentRef: params.PaymentRef,
		Status:     StatusPending,
	}
	s.bookings[booking.ID] = booking
	s.markers[markerKey(params.EventID, params.Participant.RollNumber)] = true
	s.payments[params.PaymentRef] = true
	slot.booked++

	return &AllocationResult{
		Booking:        booking,
		RemainingSeats: slot.max - slot.booked,
		EventName:      event.name,
		SlotLabel:      slot.label,
	}, nil
}

func (s *memStore) GetBooking(_ context.Context, bookingID uuid.UUID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, NewError(KindNotFound, "booking not found")
	}
	copied := *booking
	return &copied, nil
}

func (s *memStore) ListBookings(_ context.Context, eventID uuid.UUID, slotID *uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.EventID != eventID {
			continue
		}
		if slotID != nil && b.SlotID != *slotID {
			continue
		}
		if query.Status != "" && string(b.Status) != query.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) Review(_ context.Context, bookingID uuid.UUID, approve bool, adminID uuid.UUID) (*ReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, NewError(KindNotFound, "booking not found")
	}
	if booking.Status != StatusPending {
		return nil, NewError(KindInvalidArgument, "booking has already been reviewed")
	}

	if approve {
		booking.Status = StatusConfirmed
	} else {
		booking.Status = StatusRejected
		if slot := s.slots[booking.SlotID]; slot != nil && slot.booked > 0 {
			slot.booked--
		}
		delete(s.markers, markerKey(booking.EventID, booking.RollNumber))
	}
	booking.ReviewedBy = &adminID

	result := &ReviewResult{Booking: booking}
	if event := s.events[booking.EventID]; event != nil {
		result.EventName = event.name
	}
	if slot := s.slots[booking.SlotID]; slot != nil {
		result.SlotLabel = slot.label
	}
	return result, nil
}

// snapshot captures the observable storage state for atomicity checks.
func (s *memStore) snapshot() (bookings, markers, payments, booked int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.slots {
		booked += slot.booked
	}
	return len(s.bookings), len(s.markers), len(s.payments), booked
}

func requestFor(eventID, slotID uuid.UUID, roll, paymentRef string) BookingRequest {
	return BookingRequest{
		EventID: eventID.String(),
		SlotID:  slotID.String(),
		Participant: Participant{
			Name:       "Participant " + roll,
			Email:      roll + "@example.com",
			Phone:      "9876543210",
			RollNumber: roll,
		},
		PaymentRef: paymentRef,
	}
}

func TestConcurrentAllocationLastSeat(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Laser Tag Arena", true)
	slotID := store.addSlot(eventID, "Sat 11:00", 1, 0, false)

	svc := newTestService(t, store, nil, nil)

	const attempts = 50
	results := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roll := fmt.Sprintf("EE21B%03d", i)
			payment := fmt.Sprintf("PAY-%03d", i)
			_, results[i] = svc.CreateBooking(context.Background(), requestFor(eventID, slotID, roll, payment))
		}(i)
	}
	wg.Wait()

	var wins, full int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case KindOf(err) == KindSlotFull:
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins, "exactly one attempt may win the last seat")
	assert.Equal(t, attempts-1, full)

	bookingCount, markerCount, paymentCount, booked := store.snapshot()
	assert.Equal(t, 1, bookingCount)
	assert.Equal(t, 1, markerCount)
	assert.Equal(t, 1, paymentCount)
	assert.Equal(t, 1, booked)
}

func TestConcurrentAllocationNearCapacity(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Pottery Workshop", true)
	slotID := store.addSlot(eventID, "Sat 10:00", 4, 3, false)

	svc := newTestService(t, store, nil, nil)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roll := fmt.Sprintf("ME21B%03d", i)
			payment := fmt.Sprintf("PAY-NC-%03d", i)
			_, results[i] = svc.CreateBooking(context.Background(), requestFor(eventID, slotID, roll, payment))
		}(i)
	}
	wg.Wait()

	var wins, full int
	for _, err := range results {
		if err == nil {
			wins++
		} else if KindOf(err) == KindSlotFull {
			full++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, full)

	_, _, _, booked := store.snapshot()
	assert.Equal(t, 4, booked)
}

func TestDuplicateRollAcrossSlots(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Robotics 101", true)
	slotA := store.addSlot(eventID, "Sun 09:00", 10, 0, false)
	slotB := store.addSlot(eventID, "Sun 14:00", 10, 0, false)

	svc := newTestService(t, store, nil, nil)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, slotID := range []uuid.UUID{slotA, slotB} {
		wg.Add(1)
		go func(i int, slotID uuid.UUID) {
			defer wg.Done()
			payment := fmt.Sprintf("PAY-DUP-%03d", i)
			_, results[i] = svc.CreateBooking(context.Background(), requestFor(eventID, slotID, "CS21B042", payment))
		}(i, slotID)
	}
	wg.Wait()

	var wins, dupes int
	for _, err := range results {
		if err == nil {
			wins++
		} else if KindOf(err) == KindAlreadyRegistered {
			dupes++
		}
	}
	assert.Equal(t, 1, wins, "one roll number may hold at most one booking per event")
	assert.Equal(t, 1, dupes)

	bookingCount, markerCount, _, booked := store.snapshot()
	assert.Equal(t, 1, bookingCount)
	assert.Equal(t, 1, markerCount)
	assert.Equal(t, 1, booked)
}

func TestPaymentReferenceConsumedOnce(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Pottery Workshop", true)
	slotID := store.addSlot(eventID, "Sat 10:00", 10, 0, false)

	svc := newTestService(t, store, nil, nil)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roll := fmt.Sprintf("CH21B%03d", i)
			_, results[i] = svc.CreateBooking(context.Background(), requestFor(eventID, slotID, roll, "PAY-SHARED"))
		}(i)
	}
	wg.Wait()

	var wins, reused int
	for _, err := range results {
		if err == nil {
			wins++
		} else if KindOf(err) == KindPaymentAlreadyUsed {
			reused++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, reused)
}

func TestFailedAttemptLeavesNoTrace(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Pottery Workshop", true)
	openSlot := store.addSlot(eventID, "Sat 10:00", 5, 2, false)
	closedSlot := store.addSlot(eventID, "Sat 14:00", 5, 0, true)
	fullSlot := store.addSlot(eventID, "Sun 10:00", 2, 2, false)
	inactiveEvent := store.addEvent("Cancelled Event", false)

	svc := newTestService(t, store, nil, nil)

	before := [4]int{}
	before[0], before[1], before[2], before[3] = store.snapshot()

	attempts := []struct {
		req  BookingRequest
		kind Kind
	}{
		{requestFor(eventID, closedSlot, "AA21B001", "PAY-T-001"), KindSlotClosed},
		{requestFor(eventID, fullSlot, "AA21B002", "PAY-T-002"), KindSlotFull},
		{requestFor(inactiveEvent, openSlot, "AA21B003", "PAY-T-003"), KindNotFound},
		{requestFor(eventID, uuid.New(), "AA21B004", "PAY-T-004"), KindNotFound},
	}

	for _, attempt := range attempts {
		_, err := svc.CreateBooking(context.Background(), attempt.req)
		require.Error(t, err)
		assert.Equal(t, attempt.kind, KindOf(err))
	}

	after := [4]int{}
	after[0], after[1], after[2], after[3] = store.snapshot()
	assert.Equal(t, before, after, "failed attempts must not change stored state")
}

func TestRejectFreesSeatAndAllowsReRegistration(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Robotics 101", true)
	slotID := store.addSlot(eventID, "Sun 09:00", 1, 0, false)

	svc := newTestService(t, store, nil, nil)
	ctx := context.Background()
	adminID := uuid.New()

	result, err := svc.CreateBooking(ctx, requestFor(eventID, slotID, "CS21B042", "PAY-R-001"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.RemainingSeats)

	bookingID, err := uuid.Parse(result.BookingID)
	require.NoError(t, err)

	reviewed, err := svc.ReviewBooking(ctx, bookingID, false, adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, reviewed.Status)

	_, _, paymentCount, booked := store.snapshot()
	assert.Equal(t, 0, booked, "rejection frees the seat")
	assert.Equal(t, 1, paymentCount, "payment stays consumed after rejection")

	// The rejected participant may try again with a fresh payment.
	_, err = svc.CreateBooking(ctx, requestFor(eventID, slotID, "CS21B042", "PAY-R-002"))
	require.NoError(t, err)

	// The consumed reference stays dead even for other participants.
	_, err = svc.CreateBooking(ctx, requestFor(eventID, slotID, "EE21B001", "PAY-R-001"))
	require.Error(t, err)
	assert.Equal(t, KindPaymentAlreadyUsed, KindOf(err))
}

func TestReviewDecisionIsTerminal(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Pottery Workshop", true)
	slotID := store.addSlot(eventID, "Sat 10:00", 5, 0, false)

	svc := newTestService(t, store, nil, nil)
	ctx := context.Background()
	adminID := uuid.New()

	result, err := svc.CreateBooking(ctx, requestFor(eventID, slotID, "CS21B042", "PAY-F-001"))
	require.NoError(t, err)

	bookingID, err := uuid.Parse(result.BookingID)
	require.NoError(t, err)

	confirmed, err := svc.ReviewBooking(ctx, bookingID, true, adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	_, err = svc.ReviewBooking(ctx, bookingID, false, adminID)
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	// Confirming keeps the seat occupied.
	_, _, _, booked := store.snapshot()
	assert.Equal(t, 1, booked)
}

func TestReviewNotifiesParticipant(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Laser Tag Arena", true)
	slotID := store.addSlot(eventID, "Sat 16:00", 5, 0, false)

	notifier := &recordingNotifier{}
	svc := newTestService(t, store, notifier, nil)
	ctx := context.Background()

	result, err := svc.CreateBooking(ctx, requestFor(eventID, slotID, "CS21B042", "PAY-N-001"))
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, StatusPending, notifier.last.Status)

	bookingID, err := uuid.Parse(result.BookingID)
	require.NoError(t, err)

	_, err = svc.ReviewBooking(ctx, bookingID, true, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, notifier.calls)
	assert.Equal(t, StatusConfirmed, notifier.last.Status)
	assert.Equal(t, "Laser Tag Arena", notifier.last.EventName)
	assert.Equal(t, "Sat 16:00", notifier.last.SlotLabel)
}
