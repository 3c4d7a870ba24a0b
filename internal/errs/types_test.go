package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", MakeUpperCaseWithUnderscores("Bad Request"))
	assert.Equal(t, "TOO_MANY_REQUESTS", MakeUpperCaseWithUnderscores("Too Many Requests"))
	assert.Equal(t, "OK", MakeUpperCaseWithUnderscores("OK"))
}

func TestConstructorsSetStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *HTTPError
		status int
		code   string
	}{
		{"unauthorized", NewUnauthorizedError("nope", false), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", NewForbiddenError("nope", false), http.StatusForbidden, "FORBIDDEN"},
		{"bad request", NewBadRequestError("nope", false, nil, nil, nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"not found", NewNotFoundError("nope", false, nil), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", NewConflictError("nope", false, nil), http.StatusConflict, "CONFLICT"},
		{"too many requests", NewTooManyRequestsError("nope"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestCustomCodeOverride(t *testing.T) {
	code := "USER_ALREADY_EXISTS"
	err := NewBadRequestError("taken", true, &code, nil, nil)
	assert.Equal(t, "USER_ALREADY_EXISTS", err.Code)
	assert.True(t, err.Override)
}

func TestInternalServerErrorHidesDetails(t *testing.T) {
	err := NewInternalServerError()
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), err.Message)
	assert.False(t, err.Override)
}

func TestErrorsIsMatchesAnyHTTPError(t *testing.T) {
	err := NewNotFoundError("gone", false, nil)
	assert.True(t, errors.Is(err, &HTTPError{}))
	assert.False(t, errors.Is(errors.New("plain"), &HTTPError{}))
}

func TestWithMessageCopies(t *testing.T) {
	base := NewUnauthorizedError("original", true)
	derived := base.WithMessage("changed")

	assert.Equal(t, "original", base.Message)
	assert.Equal(t, "changed", derived.Message)
	assert.Equal(t, base.Status, derived.Status)
	assert.Equal(t, base.Override, derived.Override)
}
