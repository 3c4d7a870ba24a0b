// Command api runs the AuthBridge HTTP server.
//
// Startup order: config, logger, database migrations, app container,
// repositories, services, middlewares, handlers, router, listen.
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kterra/authbridge/internal/config"
	"github.com/kterra/authbridge/internal/database"
	"github.com/kterra/authbridge/internal/handler"
	"github.com/kterra/authbridge/internal/logger"
	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/router"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, loggerService, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	// Migrations run before the pool opens, so the server never serves
	// requests against an outdated schema.
	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(migrateCtx, log, cfg); err != nil {
		return fmt.Errorf("running database migrations: %w", err)
	}

	s, err := server.New(cfg, log, loggerService)
	if err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	repos := repository.NewRepositories(s)

	services, err := service.NewService(s, repos, s.Tokens)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}

	middlewares := middleware.NewMiddlewares(s, s.Tokens, services.Auth)
	handlers := handler.NewHandlers(s, services, repos)

	r := router.Setup(s, middlewares, handlers)
	s.SetupHTTPServer(r)

	// Serve in the background; the main goroutine waits for a signal.
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if loggerService != nil {
		loggerService.Shutdown(10 * time.Second)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
