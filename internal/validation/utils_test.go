package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kterra/authbridge/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testValidate = validator.New()

type signupPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=member admin"`
}

func (p *signupPayload) Validate() error {
	return testValidate.Struct(p)
}

func newJSONContext(t *testing.T, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestBindAndValidateSuccess(t *testing.T) {
	c := newJSONContext(t, `{"email":"a@b.co","password":"longenough"}`)

	payload := &signupPayload{}
	err := BindAndValidate(c, payload)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", payload.Email)
}

func TestBindAndValidateMalformedJSON(t *testing.T) {
	c := newJSONContext(t, `{"email":`)

	err := BindAndValidate(c, &signupPayload{})
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	c := newJSONContext(t, `{"email":"not-an-email","password":"short"}`)

	err := BindAndValidate(c, &signupPayload{})
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Len(t, httpErr.Errors, 2)

	byField := map[string]string{}
	for _, fe := range httpErr.Errors {
		byField[fe.Field] = fe.Error
	}
	assert.Equal(t, "must be a valid email address", byField["email"])
	assert.Equal(t, "must be at least 8 characters", byField["password"])
}

func TestBindAndValidateOneOf(t *testing.T) {
	c := newJSONContext(t, `{"email":"a@b.co","password":"longenough","role":"superuser"}`)

	err := BindAndValidate(c, &signupPayload{})
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "role", httpErr.Errors[0].Field)
	assert.Contains(t, httpErr.Errors[0].Error, "must be one of")
}

type customPayload struct{}

func (p *customPayload) Validate() error {
	return CustomValidationErrors{
		{Field: "window", Message: "start must be before end"},
	}
}

func TestBindAndValidateCustomErrors(t *testing.T) {
	c := newJSONContext(t, `{}`)

	err := BindAndValidate(c, &customPayload{})
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "window", httpErr.Errors[0].Field)
	assert.Equal(t, "start must be before end", httpErr.Errors[0].Error)
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("3e0679fe-9d39-4112-a1eb-43c0e42a4e01"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("3e0679fe9d394112a1eb43c0e42a4e01"))
}
