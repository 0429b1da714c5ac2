package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"festreg/internal/shared/config"
	"festreg/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// StatusNotification is handed to the dispatcher after a booking commit
// or an admin decision. Delivery failures never affect the booking.
type StatusNotification struct {
	Email     string
	EventName string
	SlotLabel string
	Status    Status
}

// Notifier dispatches booking confirmations. Implemented by the
// notifications package; nil disables dispatch.
type Notifier interface {
	BookingStatusChanged(ctx context.Context, n StatusNotification) error
}

// ListingCache invalidates cached event listings whose remaining-seat
// counts a committed booking has changed. Implemented by the events
// service; nil disables invalidation.
type ListingCache interface {
	InvalidateListingCache(ctx context.Context)
}

// Service is the booking allocator's entry point.
type Service interface {
	CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, eventID uuid.UUID, slotID *uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	ReviewBooking(ctx context.Context, bookingID uuid.UUID, approve bool, adminID uuid.UUID) (*Booking, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	cache    ListingCache

	maxTxRetries int
	rollPattern  *regexp.Regexp
	phonePattern *regexp.Regexp
	validate     *validator.Validate

	log *logger.Logger
}

// NewService creates a new booking service. notifier and cache may be nil.
func NewService(repo Repository, cfg config.BookingConfig, notifier Notifier, cache ListingCache) (Service, error) {
	rollPattern, err := regexp.Compile(cfg.RollNumberPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid roll number pattern %q: %w", cfg.RollNumberPattern, err)
	}

	maxRetries := cfg.MaxTxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &service{
		repo:         repo,
		notifier:     notifier,
		cache:        cache,
		maxTxRetries: maxRetries,
		rollPattern:  rollPattern,
		phonePattern: regexp.MustCompile(`^[0-9]{10}$`),
		validate:     validator.New(),
		log:          logger.GetDefault(),
	}, nil
}

// CreateBooking validates the request without touching storage, then runs
// the allocation transaction with a bounded retry on transient conflicts.
// Business-rule failures are terminal; retrying them cannot change the
// outcome.
func (s *service) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	params, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	var allocation *AllocationResult
	for attempt := 1; ; attempt++ {
		allocation, err = s.repo.Allocate(ctx, *params)
		if err == nil {
			break
		}

		if kindErr, ok := asBookingError(err); ok {
			s.log.LogBookingRejected(ctx, req.EventID, req.SlotID, params.Participant.RollNumber, string(kindErr.Kind))
			return nil, kindErr
		}

		// A unique violation means a writer on another slot won the
		// guard race after our Count checks passed.
		if kindErr, ok := classifyUniqueViolation(err); ok {
			s.log.LogBookingRejected(ctx, req.EventID, req.SlotID, params.Participant.RollNumber, string(kindErr.Kind))
			return nil, kindErr
		}

		if IsRetryableTxError(err) && attempt < s.maxTxRetries {
			s.log.LogTxRetry(ctx, req.EventID, req.SlotID, attempt)
			continue
		}

		s.log.ErrorContext(ctx, "booking allocation failed",
			slog.String("event_id", req.EventID),
			slog.String("slot_id", req.SlotID),
			slog.Int("attempts", attempt),
			slog.Any("error", err),
		)
		return nil, WrapInternal("booking could not be completed", err)
	}

	s.log.LogBookingCreated(ctx, req.EventID, req.SlotID, params.Participant.RollNumber, allocation.RemainingSeats)

	// Collaborators run strictly after the commit; their failures are
	// logged and swallowed.
	if s.cache != nil {
		s.cache.InvalidateListingCache(ctx)
	}
	if s.notifier != nil {
		notification := StatusNotification{
			Email:     allocation.Booking.Email,
			EventName: allocation.EventName,
			SlotLabel: allocation.SlotLabel,
			Status:    allocation.Booking.Status,
		}
		if err := s.notifier.BookingStatusChanged(ctx, notification); err != nil {
			s.log.WarnContext(ctx, "booking notification dispatch failed", slog.Any("error", err))
		}
	}

	return &BookingResult{
		BookingID:      allocation.Booking.ID.String(),
		RemainingSeats: allocation.RemainingSeats,
		EventName:      allocation.EventName,
		SlotLabel:      allocation.SlotLabel,
		Email:          allocation.Booking.Email,
	}, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	return s.repo.GetBooking(ctx, bookingID)
}

func (s *service) ListBookings(ctx context.Context, eventID uuid.UUID, slotID *uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return s.repo.ListBookings(ctx, eventID, slotID, query)
}

func (s *service) ReviewBooking(ctx context.Context, bookingID uuid.UUID, approve bool, adminID uuid.UUID) (*Booking, error) {
	review, err := s.repo.Review(ctx, bookingID, approve, adminID)
	if err != nil {
		if kindErr, ok := asBookingError(err); ok {
			return nil, kindErr
		}
		return nil, WrapInternal("booking review failed", err)
	}

	booking := review.Booking
	s.log.LogBookingReviewed(ctx, booking.EventID.String(), booking.SlotID.String(), booking.RollNumber, string(booking.Status), adminID.String())

	if booking.IsRejected() && s.cache != nil {
		s.cache.InvalidateListingCache(ctx)
	}
	if s.notifier != nil {
		notification := StatusNotification{
			Email:     booking.Email,
			EventName: review.EventName,
			SlotLabel: review.SlotLabel,
			Status:    booking.Status,
		}
		if err := s.notifier.BookingStatusChanged(ctx, notification); err != nil {
			s.log.WarnContext(ctx, "review notification dispatch failed", slog.Any("error", err))
		}
	}

	return booking, nil
}

// validateRequest checks every field before any storage access and
// returns an InvalidArgument error naming the violated fields.
func (s *service) validateRequest(req BookingRequest) (*AllocationParams, error) {
	var violations []string

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		violations = append(violations, "eventId")
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		violations = append(violations, "slotId")
	}

	if err := s.validate.Struct(req.Participant); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				violations = append(violations, participantFieldName(fe.Field()))
			}
		} else {
			violations = append(violations, "participant")
		}
	}

	if req.Participant.Phone != "" && !s.phonePattern.MatchString(req.Participant.Phone) {
		violations = append(violations, "participant.phone")
	}
	if req.Participant.RollNumber != "" && !s.rollPattern.MatchString(req.Participant.RollNumber) {
		violations = append(violations, "participant.rollNumber")
	}

	if err := s.validate.Var(req.PaymentRef, "required,min=4,max=100"); err != nil {
		violations = append(violations, "paymentRef")
	}

	if len(violations) > 0 {
		return nil, NewError(KindInvalidArgument, "invalid fields: "+strings.Join(dedupe(violations), ", "))
	}

	return &AllocationParams{
		EventID:     eventID,
		SlotID:      slotID,
		Participant: req.Participant,
		PaymentRef:  req.PaymentRef,
	}, nil
}

func participantFieldName(structField string) string {
	switch structField {
	case "Name":
		return "participant.name"
	case "Email":
		return "participant.email"
	case "Phone":
		return "participant.phone"
	case "RollNumber":
		return "participant.rollNumber"
	default:
		return "participant"
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
