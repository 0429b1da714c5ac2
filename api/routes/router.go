package routes

import (
	"net/http"
	"time"

	"festreg/internal/auth"
	"festreg/internal/bookings"
	"festreg/internal/events"
	"festreg/internal/shared/config"
	"festreg/internal/shared/database"
	"festreg/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier bookings.Notifier
}

// NewRouter creates a new router instance. notifier may be nil when the
// notification pipeline is disabled.
func NewRouter(cfg *config.Config, db *database.DB, notifier bookings.Notifier) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())

	r.setupAuthRoutes(api)
	eventService := r.setupEventRoutes(api)
	if err := r.setupBookingRoutes(api, eventService); err != nil {
		return err
	}

	return nil
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "festreg-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "festreg-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

// setupEventRoutes configures event and slot management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) events.Service {
	var listingCache cache.Service
	if redisClient := r.db.GetRedisClient(); redisClient != nil {
		listingCache = cache.NewService(redisClient)
	}

	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	eventService := events.NewService(eventRepo, listingCache, r.config.Redis.EventCacheTTL)
	eventController := events.NewController(eventService)

	events.SetupEventRoutes(rg, eventController)

	return eventService
}

// setupBookingRoutes configures the registration and review routes. The
// event service doubles as the listing cache invalidator so a committed
// booking refreshes the public remaining-seat counts.
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup, eventService events.Service) error {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService, err := bookings.NewService(bookingRepo, r.config.Booking, r.notifier, eventService)
	if err != nil {
		return err
	}
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)

	return nil
}
