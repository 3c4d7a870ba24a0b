// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"github.com/kterra/authbridge/internal/handler"
	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/server"
	"github.com/labstack/echo/v4"
)

// Setup builds the Echo instance with the full middleware chain and all
// route groups registered. The returned *echo.Echo satisfies
// http.Handler and is passed to server.SetupHTTPServer.
//
// Middleware order matters:
//  1. Recover     - panics become 500s before anything else sees them
//  2. Secure      - security headers on every response
//  3. RequestID   - correlation id, needed by everything that logs
//  4. NewRelic    - starts the transaction, enables FromContext downstream
//  5. Context     - request-scoped logger (wants request id + transaction)
//  6. Tracing     - custom attributes on the transaction
//  7. CORS        - before routing rejections so preflights get headers
//  8. RequestLog  - one structured line per request
func Setup(s *server.Server, m *middleware.Middlewares, h *handler.Handlers) *echo.Echo {
	r := echo.New()

	r.HideBanner = true
	r.HidePort = true

	r.HTTPErrorHandler = m.Global.GlobalErrorHandler

	r.Use(m.Global.Recover())
	r.Use(m.Global.Secure())
	r.Use(middleware.RequestID())
	r.Use(m.Tracing.NewRelicMiddleware())
	r.Use(m.ContextEnhancer.EnhanceContext())
	r.Use(m.Tracing.EnhanceTracing())
	r.Use(m.Global.CORS())
	r.Use(m.Global.RequestLogger())

	registerSystemRoutes(r, h)
	registerAPIRoutes(r, m, h)

	return r
}
