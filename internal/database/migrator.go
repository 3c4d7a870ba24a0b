package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/kterra/authbridge/internal/config"
	"github.com/rs/zerolog"
)

// All SQL files under migrations/ are embedded at compile time, so the
// binary carries its own migrations and never depends on the filesystem
// at runtime.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate runs database migrations using jackc/tern.
//
// Behavior:
//   - Connect using pgx (single connection, not a pool)
//   - Create a tern migrator and load embedded migrations
//   - Run migrations to latest
//   - Log whether the schema was already up to date or migrated
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	// A direct connection avoids pool complexity for a one-time action.
	conn, err := pgx.Connect(ctx, buildDSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	// Migration version is tracked in the schema_version table.
	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	// tern expects an fs.FS rooted at the directory holding the files.
	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}
