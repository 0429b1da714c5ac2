package bookings

import (
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

// bookingFailure is the registration API error payload. errorKind is
// always one of the allocator's taxonomy values.
type bookingFailure struct {
	Success   bool   `json:"success"`
	ErrorKind Kind   `json:"errorKind"`
	Message   string `json:"message"`
}

type bookingSuccess struct {
	Success        bool   `json:"success"`
	BookingID      string `json:"bookingId"`
	RemainingSeats int    `json:"remainingSeats"`
}

// httpStatusFor maps a failure kind to its HTTP status.
func httpStatusFor(kind Kind) int {
	switch kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotClosed, KindSlotFull, KindAlreadyRegistered, KindPaymentAlreadyUsed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondBookingError(ctx *gin.Context, err error) {
	kind := KindOf(err)
	message := "booking could not be completed"
	if be, ok := asBookingError(err); ok {
		message = be.Message
	}
	ctx.JSON(httpStatusFor(kind), bookingFailure{
		Success:   false,
		ErrorKind: kind,
		Message:   message,
	})
}

// CreateBooking handles POST /api/v1/events/:id/slots/:slotId/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	var req BookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bookingFailure{
			Success:   false,
			ErrorKind: KindInvalidArgument,
			Message:   "invalid request body",
		})
		return
	}

	// Path parameters are authoritative for event and slot.
	req.EventID = ctx.Param("id")
	req.SlotID = ctx.Param("slotId")

	result, err := c.service.CreateBooking(ctx.Request.Context(), req)
	if err != nil {
		respondBookingError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, bookingSuccess{
		Success:        true,
		BookingID:      result.BookingID,
		RemainingSeats: result.RemainingSeats,
	})
}

// GetBooking handles GET /api/v1/admin/bookings/:bookingId
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", httpStatusFor(KindOf(err)), "Booking not found", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// ListBookings handles GET /api/v1/admin/events/:id/bookings
func (c *Controller) ListBookings(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	var slotID *uuid.UUID
	if raw := ctx.Query("slot_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot ID", nil, nil)
			return
		}
		slotID = &parsed
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, totalCount, err := c.service.ListBookings(ctx.Request.Context(), eventID, slotID, query)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list bookings", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", gin.H{
		"bookings":    bookings,
		"total_count": totalCount,
		"limit":       query.Limit,
		"offset":      query.Offset,
	}, nil)
}

// ReviewBooking handles PATCH /api/v1/admin/bookings/:bookingId/review
func (c *Controller) ReviewBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	adminIDRaw, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	adminIDStr, _ := adminIDRaw.(string)
	adminID, err := uuid.Parse(adminIDStr)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid admin ID", nil, nil)
		return
	}

	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.ReviewBooking(ctx.Request.Context(), bookingID, req.Decision == "confirm", adminID)
	if err != nil {
		kind := KindOf(err)
		response.RespondJSON(ctx, "error", httpStatusFor(kind), "Failed to review booking", nil, string(kind))
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking reviewed successfully", booking, nil)
}
