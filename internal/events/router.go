package events

import (
	"festreg/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller *Controller) {
	// Public routes - anyone can browse events and slots
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.ListEvents)
		publicEvents.GET("/:id", controller.GetEvent)
	}

	// Admin routes - event and slot management
	adminEvents := router.Group("/admin/events")
	adminEvents.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminEvents.POST("", controller.CreateEvent)
		adminEvents.PUT("/:id", controller.UpdateEvent)
		adminEvents.DELETE("/:id", controller.DeleteEvent)

		adminEvents.POST("/:id/slots", controller.AddSlot)
		adminEvents.PATCH("/:id/slots/:slotId/capacity", controller.UpdateSlotCapacity)
		adminEvents.PATCH("/:id/slots/:slotId/state", controller.UpdateSlotState)
	}
}
