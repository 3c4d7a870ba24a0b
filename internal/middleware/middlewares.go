package middleware

import (
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/token"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares is a lightweight container that groups all middleware
// components used by the HTTP server.
//
// It exists so middleware construction happens in one place, with
// shared dependencies (the app container, token service, New Relic
// application) wired in once and reused everywhere.
type Middlewares struct {
	// Global holds common middleware used across the whole API:
	// CORS, request logging, recovery, secure headers, and the global
	// error handler.
	Global *GlobalMiddlewares

	// Auth provides the JWT bearer and HTTP Basic middleware and
	// attaches user context.
	Auth *AuthMiddleware

	// ContextEnhancer enriches each request with a request-scoped logger
	// (request_id, method, path, ip, optional user & trace metadata).
	ContextEnhancer *ContextEnhancer

	// Tracing provides New Relic middleware and helpers to attach custom
	// attributes and notice errors on transactions.
	Tracing *TracingMiddleware

	// RateLimit enforces per-IP limits on sensitive endpoints and records
	// New Relic custom events on hits.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components using the
// application container, the token service, and a credential verifier
// (implemented by the auth service).
//
// When New Relic is not configured, nrApp is nil and tracing middleware
// degrades into a no-op.
func NewMiddlewares(s *server.Server, tokens *token.Service, verifier CredentialVerifier) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s, tokens, verifier),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
