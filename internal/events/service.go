package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"festreg/pkg/cache"
	"festreg/pkg/logger"

	"github.com/google/uuid"
)

const activeListingCacheKey = "festreg:events:active"

// Service defines the contract for event and slot management
type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest, adminID uuid.UUID) (*EventResponse, error)
	UpdateEvent(ctx context.Context, eventID uuid.UUID, req UpdateEventRequest, adminID uuid.UUID) (*EventResponse, error)
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*EventResponse, error)
	ListEvents(ctx context.Context, activeOnly bool) ([]EventResponse, error)

	AddSlot(ctx context.Context, eventID uuid.UUID, req CreateSlotRequest) (*SlotResponse, error)
	UpdateSlotCapacity(ctx context.Context, eventID, slotID uuid.UUID, req UpdateSlotCapacityRequest) (*SlotResponse, error)
	SetSlotClosed(ctx context.Context, eventID, slotID uuid.UUID, closed bool) error

	// InvalidateListingCache drops the cached public listing. Called by the
	// booking flow after a committed reservation changes remaining seats.
	InvalidateListingCache(ctx context.Context)
}

type service struct {
	repo     Repository
	cache    cache.Service
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService creates a new event service. The cache is optional; without
// it listings are always served from the database.
func NewService(repo Repository, listingCache cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		cache:    listingCache,
		cacheTTL: cacheTTL,
		log:      logger.GetDefault(),
	}
}

func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest, adminID uuid.UUID) (*EventResponse, error) {
	event := &Event{
		Name:        req.Name,
		Kind:        EventKind(req.Kind),
		Description: req.Description,
		Price:       req.Price,
		IsActive:    true,
		CreatedBy:   adminID,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.InvalidateListingCache(ctx)
	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) UpdateEvent(ctx context.Context, eventID uuid.UUID, req UpdateEventRequest, adminID uuid.UUID) (*EventResponse, error) {
	event, err := s.repo.GetEventWithSlots(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Price != nil {
		event.Price = *req.Price
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	event.UpdatedBy = &adminID

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.InvalidateListingCache(ctx)
	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	s.InvalidateListingCache(ctx)
	return nil
}

func (s *service) GetEvent(ctx context.Context, eventID uuid.UUID) (*EventResponse, error) {
	event, err := s.repo.GetEventWithSlots(ctx, eventID)
	if err != nil {
		return nil, err
	}
	resp := event.ToResponse()
	return &resp, nil
}

// ListEvents serves the public listing through a Redis read-through cache.
// Cache failures degrade to database reads, never to request failures.
func (s *service) ListEvents(ctx context.Context, activeOnly bool) ([]EventResponse, error) {
	if activeOnly && s.cache != nil {
		var responses []EventResponse
		err := s.cache.Get(ctx, activeListingCacheKey, &responses)
		if err == nil {
			return responses, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "event listing cache read failed", slog.Any("error", err))
		}
	}

	events, err := s.repo.ListEvents(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}

	if activeOnly && s.cache != nil {
		if err := s.cache.Set(ctx, activeListingCacheKey, responses, s.cacheTTL); err != nil {
			s.log.WarnContext(ctx, "event listing cache write failed", slog.Any("error", err))
		}
	}

	return responses, nil
}

func (s *service) AddSlot(ctx context.Context, eventID uuid.UUID, req CreateSlotRequest) (*SlotResponse, error) {
	// Slot must belong to an existing event
	if _, err := s.repo.GetEventByID(ctx, eventID); err != nil {
		return nil, err
	}

	slot := &Slot{
		EventID:     eventID,
		TimeLabel:   req.TimeLabel,
		MaxCapacity: req.MaxCapacity,
	}

	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}

	s.InvalidateListingCache(ctx)
	resp := slot.ToResponse()
	return &resp, nil
}

func (s *service) UpdateSlotCapacity(ctx context.Context, eventID, slotID uuid.UUID, req UpdateSlotCapacityRequest) (*SlotResponse, error) {
	slot, err := s.repo.UpdateSlotCapacity(ctx, eventID, slotID, req.MaxCapacity)
	if err != nil {
		return nil, err
	}

	s.InvalidateListingCache(ctx)
	resp := slot.ToResponse()
	return &resp, nil
}

func (s *service) SetSlotClosed(ctx context.Context, eventID, slotID uuid.UUID, closed bool) error {
	if err := s.repo.SetSlotClosed(ctx, eventID, slotID, closed); err != nil {
		return err
	}
	s.InvalidateListingCache(ctx)
	return nil
}

func (s *service) InvalidateListingCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeListingCacheKey); err != nil {
		s.log.WarnContext(ctx, "event listing cache invalidation failed", slog.Any("error", err))
	}
}
