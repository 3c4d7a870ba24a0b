package middleware

import (
	"fmt"
	"time"

	"github.com/kterra/authbridge/internal/errs"
	"github.com/kterra/authbridge/internal/server"
	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware enforces a fixed-window rate limit backed by
// Redis, keyed by client IP per named bucket. It is mounted on the auth
// endpoints, where credential stuffing is the concern.
//
// When Redis is unreachable the limiter fails open: availability of the
// API is worth more than the limit.
type RateLimitMiddleware struct {
	server *server.Server
}

// NewRateLimitMiddleware constructs a RateLimitMiddleware.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Limit returns an Echo middleware allowing at most limit requests per
// window, per client IP, for the given bucket name.
//
// Implementation: INCR on a key scoped to the current window start;
// the first increment sets the key TTL to the window length.
func (r *RateLimitMiddleware) Limit(bucket string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.server.Redis == nil {
				return next(c)
			}

			ctx := c.Request().Context()
			windowStart := time.Now().Unix() / int64(window.Seconds())
			key := fmt.Sprintf("ratelimit:%s:%s:%d", bucket, c.RealIP(), windowStart)

			count, err := r.server.Redis.Incr(ctx, key).Result()
			if err != nil {
				// Fail open, but make it visible.
				GetLogger(c).Warn().Err(err).Str("bucket", bucket).Msg("rate limiter unavailable")
				return next(c)
			}
			if count == 1 {
				r.server.Redis.Expire(ctx, key, window)
			}

			if count > int64(limit) {
				r.RecordRateLimitHit(bucket)

				GetLogger(c).Warn().
					Str("bucket", bucket).
					Str("ip", c.RealIP()).
					Int64("count", count).
					Msg("rate limit exceeded")

				return errs.NewTooManyRequestsError("Too many requests, slow down")
			}

			return next(c)
		}
	}
}

// RecordRateLimitHit emits a New Relic custom event so limit hits can be
// charted and alerted on.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}
