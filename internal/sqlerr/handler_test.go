package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kterra/authbridge/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr
}

func TestHandleErrorPassesThroughHTTPError(t *testing.T) {
	original := errs.NewForbiddenError("no", false)
	assert.Same(t, original, HandleError(original).(*errs.HTTPError))
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Severity:       "ERROR",
		TableName:      "users",
		ConstraintName: "users_email_key",
	}

	httpErr := asHTTPError(t, HandleError(pgErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "USER_ALREADY_EXISTS", httpErr.Code)
	// Column inferred from the constraint name replaces "identifier".
	assert.Contains(t, httpErr.Message, "Email")
	assert.True(t, httpErr.Override)
}

func TestHandleErrorForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       "23503",
		Severity:   "ERROR",
		TableName:  "notes",
		ColumnName: "user_id",
	}

	httpErr := asHTTPError(t, HandleError(pgErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "NOTE_NOT_FOUND", httpErr.Code)
	assert.Contains(t, httpErr.Message, "User")
}

func TestHandleErrorNotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       "23502",
		Severity:   "ERROR",
		TableName:  "users",
		ColumnName: "first_name",
	}

	httpErr := asHTTPError(t, HandleError(pgErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "USER_REQUIRED", httpErr.Code)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "first_name", httpErr.Errors[0].Field)
}

func TestHandleErrorUnknownPgErrorBecomes500(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "40001", Severity: "ERROR"}

	httpErr := asHTTPError(t, HandleError(pgErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestHandleErrorNoRowsWithTablePrefix(t *testing.T) {
	err := fmt.Errorf("table:users: %w", pgx.ErrNoRows)

	httpErr := asHTTPError(t, HandleError(err))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "User not found", httpErr.Message)
}

func TestHandleErrorNoRowsWithoutPrefix(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Resource not found", httpErr.Message)
}

func TestHandleErrorUnknownErrorBecomes500(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestMapCode(t *testing.T) {
	tests := []struct {
		sqlstate string
		want     Code
	}{
		{"23505", UniqueViolation},
		{"23503", ForeignKeyViolation},
		{"23502", NotNullViolation},
		{"23514", CheckViolation},
		{"22P02", InvalidTextRepresentation},
		{"40001", SerializationFailure},
		{"40P01", DeadlockDetected},
		{"08006", ConnectionFailure},
		{"99999", Other},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapCode(tt.sqlstate), "sqlstate %s", tt.sqlstate)
	}
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_users_email"))
	assert.Equal(t, "", extractColumnForUniqueViolation("pk_users"))
	assert.Equal(t, "", extractColumnForUniqueViolation(""))
}

func TestGenerateErrorCode(t *testing.T) {
	assert.Equal(t, "USER_ALREADY_EXISTS", generateErrorCode("users", UniqueViolation))
	assert.Equal(t, "NOTE_NOT_FOUND", generateErrorCode("notes", ForeignKeyViolation))
	assert.Equal(t, "RECORD_ERROR", generateErrorCode("", Other))
}
