// Package config manages environment variables.
//
// It reads variables from the process environment (optionally seeded
// from a `.env` file), loads them into structured Go types, and
// validates that required values are present so they can be reused
// across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process env before any env var is read. No explicit call needed.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// Env vars use the AUTHBRIDGE_ prefix with "." as the nesting delimiter,
// e.g. AUTHBRIDGE_SERVER.PORT -> server.port -> Config.Server.Port.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs/traces and to switch behavior per environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are stored as whole seconds in env and converted where used.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores settings for both authentication schemes the API
// supports: self-issued JWT bearer tokens and HTTP Basic.
//
// JWTSecret signs HS256 tokens; protect it like any credential.
// AccessTokenTTL/RefreshTokenTTL are parsed as Go durations ("15m", "720h").
type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret" validate:"required,min=32"`
	JWTIssuer       string        `koanf:"jwt_issuer" validate:"required"`
	JWTAudience     string        `koanf:"jwt_audience" validate:"required"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl" validate:"required"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" validate:"required"`
	BasicRealm      string        `koanf:"basic_realm" validate:"required"`
}

// IntegrationConfig stores API keys for third-party integrations.
// ResendAPIKey may be empty, in which case outbound email is disabled.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
}

// Load loads configuration from environment variables, unmarshals it into
// Config structs, validates it, applies defaults, and returns the result.
//
// Behavior:
//   - Loads env vars with prefix AUTHBRIDGE_
//   - Converts env keys into koanf keys using "." nesting
//   - Unmarshals into Config and validates required fields
//   - Injects default observability config if missing
//   - Overrides observability service name + environment
func Load() (*Config, error) {
	// Bootstrap logger for configuration failures. The real application
	// logger cannot exist yet because it depends on this config.
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	// Only env vars carrying the prefix are read; the key-mapping func
	// strips the prefix and lowercases so AUTHBRIDGE_SERVER.PORT becomes
	// "server.port".
	err := k.Load(env.Provider("AUTHBRIDGE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "AUTHBRIDGE_"))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load initial env variables")
	}

	mainConfig := &Config{}

	// "" unmarshals everything from the root key path.
	if err := k.Unmarshal("", mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal main config")
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}

	// Observability is a pointer field, so nil means "missing".
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed and environment always follows primary.env so
	// tracing/logging see consistent naming regardless of env overrides.
	mainConfig.Observability.ServiceName = "authbridge"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return mainConfig, nil
}
