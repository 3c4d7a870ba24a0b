package router

import (
	"net/http"
	"time"

	"github.com/kterra/authbridge/internal/handler"
	"github.com/kterra/authbridge/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Auth endpoint rate limits. Tight on login (credential stuffing),
// looser on the rest.
const (
	loginRateLimit   = 10
	authRateLimit    = 30
	rateLimitWindow  = time.Minute
	loginRateBucket  = "auth_login"
	signupRateBucket = "auth_signup"
	tokenRateBucket  = "auth_token"
)

// registerAPIRoutes wires the business endpoints.
//
// Three protection tiers:
//   - /api/v1/auth/*: public, rate-limited per IP
//   - /api/v1/*:      JWT bearer tokens
//   - /admin/*:       HTTP Basic + admin role
func registerAPIRoutes(r *echo.Echo, m *middleware.Middlewares, h *handler.Handlers) {
	v1 := r.Group("/api/v1")

	// ---------------- Public auth endpoints ----------------------------------
	authGroup := v1.Group("/auth")

	authGroup.POST("/register",
		handler.Handle(h.Auth.Handler, h.Auth.Register, http.StatusCreated, &handler.RegisterRequest{}),
		m.RateLimit.Limit(signupRateBucket, authRateLimit, rateLimitWindow),
	)
	authGroup.POST("/login",
		handler.Handle(h.Auth.Handler, h.Auth.Login, http.StatusOK, &handler.LoginRequest{}),
		m.RateLimit.Limit(loginRateBucket, loginRateLimit, rateLimitWindow),
	)
	authGroup.POST("/refresh",
		handler.Handle(h.Auth.Handler, h.Auth.Refresh, http.StatusOK, &handler.RefreshRequest{}),
		m.RateLimit.Limit(tokenRateBucket, authRateLimit, rateLimitWindow),
	)

	// Logout needs the bearer token to know which session to revoke.
	authGroup.POST("/logout",
		handler.HandleNoContent(h.Auth.Handler, h.Auth.Logout, http.StatusNoContent, &handler.LogoutRequest{}),
		m.Auth.RequireJWT,
	)

	// ---------------- JWT-protected endpoints --------------------------------
	protected := v1.Group("", m.Auth.RequireJWT)

	protected.GET("/users/me",
		handler.Handle(h.Users.Handler, h.Users.Me, http.StatusOK, &handler.EmptyRequest{}))
	protected.PUT("/users/me",
		handler.Handle(h.Users.Handler, h.Users.UpdateMe, http.StatusOK, &handler.UpdateProfileRequest{}))

	protected.POST("/notes",
		handler.Handle(h.Notes.Handler, h.Notes.Create, http.StatusCreated, &handler.CreateNoteRequest{}))
	protected.GET("/notes",
		handler.Handle(h.Notes.Handler, h.Notes.List, http.StatusOK, &handler.EmptyRequest{}))
	protected.GET("/notes/:id",
		handler.Handle(h.Notes.Handler, h.Notes.Get, http.StatusOK, &handler.NoteIDRequest{}))
	protected.PUT("/notes/:id",
		handler.Handle(h.Notes.Handler, h.Notes.Update, http.StatusOK, &handler.UpdateNoteRequest{}))
	protected.DELETE("/notes/:id",
		handler.HandleNoContent(h.Notes.Handler, h.Notes.Delete, http.StatusNoContent, &handler.NoteIDRequest{}))

	// ---------------- Basic-auth admin endpoints -----------------------------
	// Same identity store as the JWT tier, different scheme: credentials
	// are verified on every request. Kept for tooling (curl, monitoring
	// scripts) where a token dance is more trouble than it is worth.
	admin := r.Group("/admin", m.Auth.RequireBasic, m.Auth.RequireRole("admin"))

	admin.GET("/me",
		handler.Handle(h.Users.Handler, h.Users.Me, http.StatusOK, &handler.EmptyRequest{}))
	admin.GET("/users",
		handler.Handle(h.Users.Handler, h.Users.ListUsers, http.StatusOK, &handler.ListUsersRequest{}))
}
