// Package sqlerr specifically handles database driver errors.
//
// It parses cryptic error codes from the database driver and
// converts them into user-friendly messages (e.g., converting
// a "foreign key violation" into a "Bad Request" error).
package sqlerr

import "fmt"

// Code is the application-level classification of a database error.
type Code int

const (
	// Other covers anything not explicitly mapped.
	Other Code = iota
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	CheckViolation
	InvalidTextRepresentation
	SerializationFailure
	DeadlockDetected
	ConnectionFailure
)

// Severity mirrors the Postgres severity field as an enum.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityError
	SeverityFatal
	SeverityPanic
	SeverityWarning
)

// Error is the normalized database error. It keeps the original SQLSTATE
// and constraint metadata so higher layers can phrase useful messages.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string // original SQLSTATE, e.g. "23505"
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	// driverErr keeps the original driver error for Unwrap/debugging.
	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlerr: %s (SQLSTATE %s)", e.Message, e.DatabaseCode)
}

// Unwrap exposes the original driver error to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a Postgres SQLSTATE onto the Code enum.
//
// Class 23 holds integrity constraint violations; the rest are mapped
// individually where the application cares, everything else is Other.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	case "22P02":
		return InvalidTextRepresentation
	case "40001":
		return SerializationFailure
	case "40P01":
		return DeadlockDetected
	case "08000", "08003", "08006":
		return ConnectionFailure
	default:
		return Other
	}
}

// MapSeverity maps the Postgres severity string onto the Severity enum.
func MapSeverity(severity string) Severity {
	switch severity {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	default:
		return SeverityUnknown
	}
}
