package bookings

import (
	"festreg/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes registers the public registration endpoint and the
// admin review surface.
func SetupBookingRoutes(router *gin.RouterGroup, controller *Controller) {
	// Public: one registration attempt per call
	router.POST("/events/:id/slots/:slotId/bookings", controller.CreateBooking)

	// Admin review surface
	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.GET("/events/:id/bookings", controller.ListBookings)
		admin.GET("/bookings/:bookingId", controller.GetBooking)
		admin.PATCH("/bookings/:bookingId/review", controller.ReviewBooking)
	}
}
