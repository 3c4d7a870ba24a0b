package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kterra/authbridge/internal/errs"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to
// validate themselves.
//
// Typical pattern:
//   - Define a request struct with validator tags (`validate:"required,email"`)
//   - Implement Validate() error that runs validator.Struct(req)
//   - Return validator.ValidationErrors (or CustomValidationErrors for
//     rules that tags cannot express)
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a
// specific field, used for rules outside validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that
// satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. c.Bind(payload) populates the request struct from body/params.
//  2. payload.Validate() applies validation rules.
//  3. Returns *errs.HTTPError (400) with field-level errors on failure.
//
// payload must be a pointer so Bind can populate it.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			if msg, ok := httpErr.Message.(string); ok {
				return errs.NewBadRequestError(msg, false, nil, nil, nil)
			}
		}
		return errs.NewBadRequestError("Malformed request body", false, nil, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

// validateStruct calls v.Validate() and extracts field errors on failure.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	// validator.ValidationErrors is returned on struct tag failures;
	// anything else is expected to be CustomValidationErrors.
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		customValidationErrors, ok := err.(CustomValidationErrors)
		if !ok {
			return "Validation failed", []errs.FieldError{{Field: "request", Error: err.Error()}}
		}
		for _, cerr := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: cerr.Field,
				Error: cerr.Message,
			})
		}
	}

	// Convert validator.ValidationErrors into user-friendly messages.
	for _, verr := range validationErrors {
		field := strings.ToLower(verr.Field())
		var msg string

		switch verr.Tag() {
		case "required":
			msg = "is required"

		case "min":
			// min means minimum length for strings, minimum value otherwise.
			if verr.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", verr.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", verr.Param())
			}

		case "max":
			if verr.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", verr.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", verr.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", verr.Param())

		case "email":
			msg = "must be a valid email address"

		case "uuid":
			msg = "must be a valid UUID"

		case "dive":
			msg = "some items are invalid"

		default:
			// Fallback includes tag name and param to help debugging.
			if verr.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, verr.Tag(), verr.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, verr.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}

// uuidRegex matches the standard UUID text format.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidUUID checks whether a string matches UUID format.
// Format only; it does not validate version/variant semantics.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(uuid)
}
