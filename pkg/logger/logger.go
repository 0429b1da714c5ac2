package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler in development, JSON in production
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogBookingCreated logs a successful slot booking
func (l *Logger) LogBookingCreated(ctx context.Context, eventID, slotID, rollNumber string, remainingSeats int) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("event_id", eventID),
		slog.String("slot_id", slotID),
		slog.String("roll_number", rollNumber),
		slog.Int("remaining_seats", remainingSeats),
	)
}

// LogBookingRejected logs a booking attempt that failed a business rule
func (l *Logger) LogBookingRejected(ctx context.Context, eventID, slotID, rollNumber, kind string) {
	l.Logger.InfoContext(ctx,
		"Booking Rejected",
		slog.String("event_id", eventID),
		slog.String("slot_id", slotID),
		slog.String("roll_number", rollNumber),
		slog.String("kind", kind),
	)
}

// LogBookingReviewed logs an admin confirm/reject decision
func (l *Logger) LogBookingReviewed(ctx context.Context, eventID, slotID, rollNumber, status, adminID string) {
	l.Logger.InfoContext(ctx,
		"Booking Reviewed",
		slog.String("event_id", eventID),
		slog.String("slot_id", slotID),
		slog.String("roll_number", rollNumber),
		slog.String("status", status),
		slog.String("admin_id", adminID),
	)
}

// LogTxRetry logs a transient transaction conflict retry
func (l *Logger) LogTxRetry(ctx context.Context, eventID, slotID string, attempt int) {
	l.Logger.WarnContext(ctx,
		"Booking Transaction Retry",
		slog.String("event_id", eventID),
		slog.String("slot_id", slotID),
		slog.Int("attempt", attempt),
	)
}

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
