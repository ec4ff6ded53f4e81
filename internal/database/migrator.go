package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-service/migrations"
)

// migrationsTable is where golang-migrate records the applied version.
const migrationsTable = "schema_migrations"

// Migrator handles database migrations.
type Migrator struct {
	migrate *migrate.Migrate
	sqlDB   *sql.DB // sql.DB wrapper around the pgx pool, must be closed
	logger  zerolog.Logger
}

// NewMigrator creates a migrator reading migrations from migrationsPath, or from
// the migrations embedded in the binary when migrationsPath is empty.
func NewMigrator(db *DB, migrationsPath string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if db.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	src, sourceName, err := openSource(migrationsPath)
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		_ = src.Close()
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance(sourceName, src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	logger.Debug().Str("source", sourceName).Str("path", migrationsPath).Msg("migrator ready")

	return &Migrator{
		migrate: m,
		sqlDB:   sqlDB,
		logger:  logger,
	}, nil
}

// openSource resolves the migration source driver.
func openSource(migrationsPath string) (source.Driver, string, error) {
	if migrationsPath == "" {
		src, err := EmbeddedSource(migrations.FS)
		if err != nil {
			return nil, "", err
		}
		return src, "iofs", nil
	}

	if _, err := os.Stat(migrationsPath); err != nil {
		return nil, "", fmt.Errorf("migrations path validation failed: %w", err)
	}
	src, err := source.Open("file://" + migrationsPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open migrations path: %w", err)
	}
	return src, "file", nil
}

// EmbeddedSource returns a migration source over an fs.FS whose root holds the
// migration files.
func EmbeddedSource(fsys fs.FS) (source.Driver, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return src, nil
}

// Migration is one versioned schema change.
type Migration struct {
	Version uint
	Name    string
}

// Migrations lists the migrations available from migrationsPath, oldest
// first. An empty path lists the embedded set.
func Migrations(migrationsPath string) ([]Migration, error) {
	src, _, err := openSource(migrationsPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	version, err := src.First()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read first migration: %w", err)
	}

	var out []Migration
	for {
		r, name, err := src.ReadUp(version)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %d: %w", version, err)
		}
		_ = r.Close()
		out = append(out, Migration{Version: version, Name: name})

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read migration after %d: %w", version, err)
		}
		version = next
	}
}

// Up runs all pending migrations.
func (m *Migrator) Up() error {
	m.logger.Info().Msg("running database migrations...")

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("no migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.logger.Info().Msg("migrations completed successfully")
	return nil
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	m.logger.Warn().Msg("rolling back all migrations...")

	if err := m.migrate.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	m.logger.Info().Msg("migrations rolled back successfully")
	return nil
}

// Steps runs n migrations (positive = up, negative = down).
func (m *Migrator) Steps(n int) error {
	m.logger.Info().Int("steps", n).Msg("running migration steps...")

	if err := m.migrate.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("no migrations to apply")
			return nil
		}
		// Stepping past the last migration reports a missing file.
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Info().Msg("no more migrations available")
			return nil
		}
		return fmt.Errorf("failed to run migration steps: %w", err)
	}

	m.logger.Info().Int("steps", n).Msg("migration steps completed successfully")
	return nil
}

// Version returns the current migration version. A database with no
// migrations applied reports version 0.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Force sets the migration version without running migrations.
// Used to recover from a failed, dirty migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn().Int("version", version).Msg("forcing migration version...")
	return m.migrate.Force(version)
}

// Close closes the migrator and releases resources.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()

	if m.sqlDB != nil {
		if err := m.sqlDB.Close(); err != nil && dbErr == nil {
			dbErr = err
		}
	}

	if sourceErr != nil && dbErr != nil {
		return fmt.Errorf("failed to close migrator: source error: %v, database error: %w", sourceErr, dbErr)
	}
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

// RunMigrations applies all pending migrations and closes the migrator.
func RunMigrations(db *DB, migrationsPath string, logger zerolog.Logger) error {
	m, err := NewMigrator(db, migrationsPath, logger)
	if err != nil {
		return err
	}
	upErr := m.Up()
	if err := m.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close migrator")
	}
	return upErr
}
