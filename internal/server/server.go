// Package server defines the core Server struct that composes the app's
// main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool
//   - redis client
//   - background job worker server (asynq)
//   - http.Server
//
// It provides constructors and start/shutdown logic to run the
// application cleanly.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kterra/authbridge/internal/config"
	"github.com/kterra/authbridge/internal/database"
	"github.com/kterra/authbridge/internal/lib/job"
	"github.com/kterra/authbridge/internal/token"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/kterra/authbridge/internal/logger"
)

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself; it holds the config, the loggers,
// database and redis connections, the background job service, and an
// internal *http.Server used to listen and serve requests.
type Server struct {
	// Config holds all environment/config values for the app.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	// If New Relic is disabled, it exists but GetApplication returns nil.
	LoggerService *loggerPkg.LoggerService

	// DB holds the PostgreSQL pool wrapper.
	DB *database.Database

	// Redis is the Redis client. May be non-nil but unreachable; features
	// that depend on it degrade instead of blocking startup.
	Redis *redis.Client

	// Tokens issues and verifies the API's JWT/refresh credentials. It
	// lives on the container because both the middleware layer and the
	// background sweep job need it.
	Tokens *token.Service

	// Job runs background workers (asynq) and provides a client for
	// enqueueing.
	Job *job.JobService

	// httpServer is the standard library HTTP server instance,
	// configured in SetupHTTPServer and started in Start.
	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// It does NOT start the HTTP server; that is done in SetupHTTPServer +
// Start.
//
// Initialization performed:
//   - PostgreSQL pool + optional New Relic tracing
//   - Redis client + optional New Relic hooks
//   - JobService (asynq client/server), worker started in the background
//
// A Redis connection failure does not block startup (logged and
// continued); a database failure does.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis connections are lazy; the client is created unconditionally.
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	// New Relic hooks instrument Redis commands (timing, errors) so they
	// show up in distributed traces.
	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	// Probe Redis with a timeout so startup doesn't hang. Failure is
	// tolerated: token revocation and rate limiting degrade gracefully.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to Redis, continuing without Redis")
	}

	tokens := token.NewService(cfg, redisClient, logger)

	jobService := job.NewJobService(logger, cfg, tokens)

	// asynq's Start blocks until shutdown, so the worker runs in its own
	// goroutine; Shutdown stops it.
	go func() {
		if err := jobService.Start(); err != nil {
			logger.Error().Err(err).Msg("background job server stopped")
		}
	}()

	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Tokens:        tokens,
		Job:           jobService,
	}

	return server, nil
}

// SetupHTTPServer configures the internal net/http server.
//
// The router/mux is passed in as handler; Echo satisfies http.Handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// These timeouts protect against slow clients and resource
		// exhaustion. Config stores whole seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It requires SetupHTTPServer to be called
// first and blocks until the server stops or errors.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its dependencies:
// HTTP server first (finish inflight requests until ctx deadline), then
// the database pool, redis, and background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	return nil
}
