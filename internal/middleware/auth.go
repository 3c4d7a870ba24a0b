package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kterra/authbridge/internal/errs"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/token"
	"github.com/labstack/echo/v4"
)

const (
	// ClaimsKey stores the verified *token.Claims in Echo context so
	// handlers (e.g. logout) can reach the raw claims.
	ClaimsKey = "auth_claims"

	bearerPrefix = "Bearer "
)

// CredentialVerifier checks an email/password pair against stored
// credentials. Implemented by the auth service; defined here so the
// middleware does not depend on the service package.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (userID, role string, err error)
}

// AuthMiddleware enforces the two authentication schemes the API
// supports side by side:
//
//   - RequireJWT: stateless bearer tokens. The credential is verified
//     once at login; each request only costs a signature check.
//   - RequireBasic: RFC 7617 credentials on every request. Each request
//     costs a database lookup plus a bcrypt comparison, which is exactly
//     the trade-off that makes Basic unsuitable for high-traffic APIs.
//
// Both set user_id/user_role into Echo context for handlers and logging.
type AuthMiddleware struct {
	server   *server.Server
	tokens   *token.Service
	verifier CredentialVerifier
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server, tokens *token.Service, verifier CredentialVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		server:   s,
		tokens:   tokens,
		verifier: verifier,
	}
}

// RequireJWT is an Echo middleware that enforces bearer token
// authentication.
//
// Behavior:
//  1. Read Authorization: Bearer <token>.
//  2. Verify signature, claims, and the revocation denylist.
//  3. Store user_id/user_role/claims into Echo context.
//  4. Call the next handler.
//
// All failures collapse into a 401 with a class-specific message; the
// precise verification error is logged, never sent to the client.
func (auth *AuthMiddleware) RequireJWT(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return errs.NewUnauthorizedError("Missing bearer token", false)
		}
		tokenString := strings.TrimPrefix(header, bearerPrefix)

		claims, err := auth.tokens.Verify(c.Request().Context(), tokenString)
		if err != nil {
			auth.server.Logger.Warn().
				Err(err).
				Str("function", "RequireJWT").
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("bearer token rejected")

			return errs.NewUnauthorizedError(jwtFailureMessage(err), false)
		}

		// Stored in Echo's request-scoped key/value bag, not in the Go
		// context; handlers read them via GetUserID/GetUserRole.
		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Set(ClaimsKey, claims)

		auth.server.Logger.Debug().
			Str("function", "RequireJWT").
			Str("user_id", claims.Subject).
			Str("request_id", GetRequestID(c)).
			Dur("duration", time.Since(start)).
			Msg("user authenticated")

		return next(c)
	}
}

// RequireBasic is an Echo middleware that enforces HTTP Basic
// authentication against the users table.
//
// On missing/invalid credentials it emits the WWW-Authenticate challenge
// with the configured realm, as the scheme requires.
func (auth *AuthMiddleware) RequireBasic(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		email, password, ok := c.Request().BasicAuth()
		if !ok {
			auth.challenge(c)
			return errs.NewUnauthorizedError("Missing credentials", false)
		}

		userID, role, err := auth.verifier.VerifyCredentials(c.Request().Context(), email, password)
		if err != nil {
			auth.server.Logger.Warn().
				Err(err).
				Str("function", "RequireBasic").
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("basic credentials rejected")

			auth.challenge(c)
			return errs.NewUnauthorizedError("Invalid credentials", false)
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, role)

		auth.server.Logger.Debug().
			Str("function", "RequireBasic").
			Str("user_id", userID).
			Str("request_id", GetRequestID(c)).
			Dur("duration", time.Since(start)).
			Msg("user authenticated")

		return next(c)
	}
}

// RequireRole builds on either auth middleware and rejects users whose
// role does not match. 403, not 401: the caller is known, just not
// allowed.
func (auth *AuthMiddleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUserRole(c) != role {
				return errs.NewForbiddenError("Insufficient permissions", false)
			}
			return next(c)
		}
	}
}

// GetClaims reads the verified token claims from Echo context.
// Returns nil when RequireJWT did not run.
func GetClaims(c echo.Context) *token.Claims {
	if claims, ok := c.Get(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}

// challenge sets the WWW-Authenticate header for Basic auth failures.
func (auth *AuthMiddleware) challenge(c echo.Context) {
	realm := auth.server.Config.Auth.BasicRealm
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", realm))
}

// jwtFailureMessage maps verification errors onto client-safe messages.
func jwtFailureMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, token.ErrTokenRevoked):
		return "Token revoked"
	case errors.Is(err, token.ErrTokenMissing):
		return "Missing bearer token"
	default:
		return "Invalid token"
	}
}
