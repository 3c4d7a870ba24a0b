package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler exposes the endpoint load balancers and uptime monitors
// poll to verify the service is alive and its dependencies reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns system health status and dependency checks.
//
// Response includes the overall status, a UTC timestamp, the environment,
// and a per-dependency checks map (database, redis).
//
// Returns 200 when the database is reachable, 503 otherwise. Redis is
// reported but does not flip the overall status: the API deliberately
// runs degraded without it (no refresh tokens, no revocation, no rate
// limits), so taking the instance out of rotation would make an outage
// worse, not better.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      make(map[string]interface{}),
	}

	checks := response["checks"].(map[string]interface{})
	isHealthy := true

	// ---------------- Database connectivity check ----------------------------
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbStart := time.Now()

	if err := h.server.DB.Pool.Ping(ctx); err != nil {
		checks["database"] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(dbStart).String(),
			"error":         err.Error(),
		}

		isHealthy = false

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(dbStart)).
			Msg("database health check failed")

		h.recordCheckError("database", "database_unhealthy", time.Since(dbStart), err)
	} else {
		checks["database"] = map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(dbStart).String(),
		}
	}

	// ---------------- Redis connectivity check -------------------------------
	if h.server.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		redisStart := time.Now()

		if err := h.server.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": time.Since(redisStart).String(),
				"error":         err.Error(),
			}

			logger.Error().
				Err(err).
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check failed")

			h.recordCheckError("redis", "redis_unhealthy", time.Since(redisStart), err)
		} else {
			checks["redis"] = map[string]interface{}{
				"status":        "healthy",
				"response_time": time.Since(redisStart).String(),
			}
		}
	}

	// ---------------- Overall status + response ------------------------------
	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordCheckError("overall", "overall_unhealthy", time.Since(start), nil)

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// recordCheckError emits a New Relic custom event for a failed check,
// when the agent is enabled.
func (h *HealthHandler) recordCheckError(checkType, errorType string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	attrs := map[string]interface{}{
		"check_type":       checkType,
		"operation":        "health_check",
		"error_type":       errorType,
		"response_time_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		attrs["error_message"] = err.Error()
	}

	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}
