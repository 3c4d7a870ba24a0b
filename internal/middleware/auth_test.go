package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kterra/authbridge/internal/errs"
	"github.com/kterra/authbridge/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireRoleAllowsMatch(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(UserRoleKey, "admin")

	auth := &AuthMiddleware{}
	called := false
	handler := auth.RequireRole("admin")(func(c echo.Context) error {
		called = true
		return nil
	})

	require.NoError(t, handler(c))
	assert.True(t, called)
}

func TestRequireRoleRejectsMismatch(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(UserRoleKey, "member")

	auth := &AuthMiddleware{}
	err := auth.RequireRole("admin")(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})(c)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Status)
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	auth := &AuthMiddleware{}
	err := auth.RequireRole("admin")(func(c echo.Context) error {
		return nil
	})(c)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Status)
}

func TestGetClaimsWithoutAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, GetClaims(c))
}

func TestJWTFailureMessages(t *testing.T) {
	// The exact verification failure stays in the logs; clients get a
	// class-level message only.
	assert.Equal(t, "Token expired", jwtFailureMessage(token.ErrTokenExpired))
	assert.Equal(t, "Token revoked", jwtFailureMessage(token.ErrTokenRevoked))
	assert.Equal(t, "Missing bearer token", jwtFailureMessage(token.ErrTokenMissing))
	assert.Equal(t, "Invalid token", jwtFailureMessage(token.ErrTokenMalformed))
	assert.Equal(t, "Invalid token", jwtFailureMessage(errors.New("anything else")))
}
