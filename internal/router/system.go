package router

import (
	"github.com/kterra/authbridge/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of business
// logic: health, docs UI, and the static assets behind them.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	// Health status endpoint (used by Kubernetes/monitors).
	r.GET("/status", h.Health.CheckHealth)

	// Serve all files from ./static at /static/*.
	// Used for openapi.json and any future docs assets.
	r.Static("/static", "static")

	// Docs UI endpoint (serves openapi.html).
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
