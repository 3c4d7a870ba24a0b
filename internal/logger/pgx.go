package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewPgxLogger builds the logger handed to the pgx tracelog adapter.
//
// SQL logging is only enabled in the local environment, so a console
// writer is appropriate here. The component field separates driver noise
// from application logs.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", "pgx").
		Logger()
}

// GetPgxTraceLogLevel maps a zerolog level onto the pgx tracelog level
// scale (tracelog.LogLevelNone=0 .. tracelog.LogLevelTrace=6).
//
// Returned as int so this package does not depend on the driver; the
// caller converts with tracelog.LogLevel(...).
func GetPgxTraceLogLevel(level zerolog.Level) int {
	switch level {
	case zerolog.TraceLevel:
		return 6 // tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return 5 // tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return 4 // tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return 3 // tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return 2 // tracelog.LogLevelError
	default:
		return 0 // tracelog.LogLevelNone
	}
}
