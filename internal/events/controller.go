package events

import (
	"errors"
	"net/http"

	"festreg/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func statusForEventError(err error) int {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCapacityTooSmall):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ListEvents handles GET /api/v1/events
func (c *Controller) ListEvents(ctx *gin.Context) {
	// Admins may request inactive events too
	activeOnly := ctx.Query("include_inactive") != "true"

	events, err := c.service.ListEvents(ctx.Request.Context(), activeOnly)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list events", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Events retrieved successfully", gin.H{
		"events": events,
		"count":  len(events),
	}, nil)
}

// GetEvent handles GET /api/v1/events/:id
func (c *Controller) GetEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	event, err := c.service.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForEventError(err), "Event not found", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

// CreateEvent handles POST /api/v1/admin/events
func (c *Controller) CreateEvent(ctx *gin.Context) {
	adminID, ok := adminIDFromContext(ctx)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := c.service.CreateEvent(ctx.Request.Context(), req, adminID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create event", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Event created successfully", event, nil)
}

// UpdateEvent handles PUT /api/v1/admin/events/:id
func (c *Controller) UpdateEvent(ctx *gin.Context) {
	adminID, ok := adminIDFromContext(ctx)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	var req UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := c.service.UpdateEvent(ctx.Request.Context(), eventID, req, adminID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForEventError(err), "Failed to update event", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Event updated successfully", event, nil)
}

// DeleteEvent handles DELETE /api/v1/admin/events/:id
func (c *Controller) DeleteEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	if err := c.service.DeleteEvent(ctx.Request.Context(), eventID); err != nil {
		response.RespondJSON(ctx, "error", statusForEventError(err), "Failed to delete event", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Event deleted successfully", nil, nil)
}

// AddSlot handles POST /api/v1/admin/events/:id/slots
func (c *Controller) AddSlot(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	var req CreateSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	slot, err := c.service.AddSlot(ctx.Request.Context(), eventID, req)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForEventError(err), "Failed to create slot", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Slot created successfully", slot, nil)
}

// UpdateSlotCapacity handles PATCH /api/v1/admin/events/:id/slots/:slotId/capacity
func (c *Controller) UpdateSlotCapacity(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}
	slotID, err := uuid.Parse(ctx.Param("slotId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot ID", nil, nil)
		return
	}

	var req UpdateSlotCapacityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	slot, err := c.service.UpdateSlotCapacity(ctx.Request.Context(), eventID, slotID, req)
	if err != nil {
		if errors.Is(err, ErrCapacityTooSmall) {
			response.RespondJSON(ctx, "error", http.StatusConflict, "Capacity cannot drop below current occupancy", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", statusForEventError(err), "Failed to update slot capacity", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slot capacity updated successfully", slot, nil)
}

// UpdateSlotState handles PATCH /api/v1/admin/events/:id/slots/:slotId/state
func (c *Controller) UpdateSlotState(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}
	slotID, err := uuid.Parse(ctx.Param("slotId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot ID", nil, nil)
		return
	}

	var req UpdateSlotStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.service.SetSlotClosed(ctx.Request.Context(), eventID, slotID, *req.IsClosed); err != nil {
		response.RespondJSON(ctx, "error", statusForEventError(err), "Failed to update slot state", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slot state updated successfully", nil, nil)
}

func adminIDFromContext(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return uuid.Nil, false
	}
	idStr, _ := raw.(string)
	adminID, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return uuid.Nil, false
	}
	return adminID, true
}
