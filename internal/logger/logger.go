// Package logger configures the application's logging, monitoring,
// and observability.
//
// It uses zerolog for structured logging and integrates with New Relic
// to instrument the codebase, forwarding logs, metrics, and traces.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/kterra/authbridge/internal/config"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// LoggerService owns the New Relic application instance.
//
// It exists so the rest of the codebase can ask "is APM configured?"
// without importing agent setup details. When New Relic is disabled,
// the service still exists but GetApplication returns nil and every
// caller degrades to a no-op.
type LoggerService struct {
	nrApp *zerologWriterApp
}

// zerologWriterApp bundles the agent application with the log-forwarding
// writer built on top of it, so both can be torn down together.
type zerologWriterApp struct {
	app    *newrelic.Application
	writer io.Writer
}

// New builds the application logger and, when a license key is present,
// the New Relic application used for APM and log forwarding.
//
// Output selection:
//   - "console" format: human-friendly console writer (local development)
//   - "json" format: raw JSON to stdout, optionally wrapped by the
//     New Relic zerologWriter so log lines are decorated and forwarded
func New(cfg *config.Config) (*zerolog.Logger, *LoggerService, error) {
	obs := cfg.Observability

	level, err := zerolog.ParseLevel(obs.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	var service *LoggerService
	var out io.Writer = os.Stdout

	if obs.NewRelic.LicenseKey != "" {
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(obs.ServiceName),
			newrelic.ConfigLicense(obs.NewRelic.LicenseKey),
			newrelic.ConfigAppLogForwardingEnabled(obs.NewRelic.AppLogForwardingEnabled),
			newrelic.ConfigDistributedTracerEnabled(obs.NewRelic.DistributedTracingEnabled),
			func(c *newrelic.Config) {
				c.Labels = map[string]string{"environment": obs.Environment}
			},
		)
		if err != nil {
			return nil, nil, err
		}

		writer := zerologWriter.New(os.Stdout, app)
		service = &LoggerService{nrApp: &zerologWriterApp{app: app, writer: writer}}

		if obs.Logging.Format == "json" {
			// The zerologWriter parses each JSON log line, decorates it
			// with linking metadata, and forwards it to New Relic.
			out = writer
		}
	} else {
		service = &LoggerService{}
	}

	if obs.Logging.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", obs.ServiceName).
		Str("env", obs.Environment).
		Logger()

	return &logger, service, nil
}

// GetApplication returns the New Relic application instance, or nil when
// New Relic is not configured. Callers must handle nil.
func (s *LoggerService) GetApplication() *newrelic.Application {
	if s == nil || s.nrApp == nil {
		return nil
	}
	return s.nrApp.app
}

// Shutdown flushes buffered telemetry. Safe to call when the agent is
// not configured.
func (s *LoggerService) Shutdown(timeout time.Duration) {
	if app := s.GetApplication(); app != nil {
		app.Shutdown(timeout)
	}
}

// WithTraceContext returns a copy of the logger carrying the transaction's
// trace.id and span.id fields, so log lines correlate with traces.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}
	md := txn.GetLinkingMetadata()
	return logger.With().
		Str("trace.id", md.TraceID).
		Str("span.id", md.SpanID).
		Logger()
}
