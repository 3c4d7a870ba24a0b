package middleware

import (
	"context"

	"github.com/kterra/authbridge/internal/logger"
	"github.com/kterra/authbridge/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const (
	// UserIDKey and UserRoleKey are the canonical keys used to store and
	// retrieve user identity from Echo context. The auth middleware sets
	// them after a successful verification.
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"

	// LoggerKey is the key for the request-scoped logger.
	LoggerKey = "logger"
)

// loggerCtxKey is the typed key for storing the request logger in the Go
// request context, avoiding collisions with other packages.
type loggerCtxKey struct{}

// ContextEnhancer enriches request context.
//
// It builds a request-scoped logger with useful fields:
//   - request_id
//   - method, path, ip
//   - trace.id/span.id (if a New Relic transaction exists)
//   - user_id/user_role (if auth middleware ran earlier)
//
// The logger is stored in both Echo context and the Go request context,
// so non-HTTP layers that only see context.Context can log with
// correlation fields.
type ContextEnhancer struct {
	server *server.Server
}

// NewContextEnhancer creates a ContextEnhancer using the app Server
// container.
func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns the Echo middleware. For every request it
// derives a child logger from the application logger, stamps request and
// trace metadata on it, and stores it for downstream use.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := GetRequestID(c)

			contextLogger := ce.server.Logger.With().
				Str("request_id", requestID).
				Str("method", c.Request().Method).
				Str("path", c.Path()). // route template, not raw URL
				Str("ip", c.RealIP()).
				Logger()

			// Correlate logs with traces when a transaction exists.
			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			// User fields are only present when auth middleware ran
			// before this enhancer (e.g. per-group ordering).
			if userID := GetUserID(c); userID != "" {
				contextLogger = contextLogger.With().Str("user_id", userID).Logger()
			}
			if userRole := GetUserRole(c); userRole != "" {
				contextLogger = contextLogger.With().Str("user_role", userRole).Logger()
			}

			c.Set(LoggerKey, &contextLogger)

			ctx := context.WithValue(c.Request().Context(), loggerCtxKey{}, &contextLogger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetUserID reads user_id from Echo context.
func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetUserRole reads user_role from Echo context.
func GetUserRole(c echo.Context) string {
	if userRole, ok := c.Get(UserRoleKey).(string); ok {
		return userRole
	}
	return ""
}

// GetLogger retrieves the request-scoped logger from Echo context.
// If EnhanceContext didn't run, it returns a no-op logger so callers
// never crash on nil.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	nop := zerolog.Nop()
	return &nop
}

// LoggerFromContext retrieves the request logger from a Go context, for
// code below the HTTP layer (services, repositories).
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey{}).(*zerolog.Logger); ok {
		return logger
	}

	nop := zerolog.Nop()
	return &nop
}
