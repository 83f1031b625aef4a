// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running database schema migrations.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. The API server applies
// pending migrations at startup; addrctl can also step the schema back.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Runner applies the migrations found under a directory to one database.
type Runner struct {
	migrator *migrate.Migrate
	logger   *slog.Logger
}

// NewRunner opens the migration source and the target database.
//
// # Parameters
//   - dsn: A libpq-compatible DSN or postgres:// URL.
//   - migrationsPath: Filesystem path to the migrations directory.
//   - logger: Structured logger for migration events.
func NewRunner(dsn, migrationsPath string, logger *slog.Logger) (*Runner, error) {
	migrator, err := migrate.New("file://"+migrationsPath, toPgx5DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("migration: failed to initialize: %w", err)
	}
	migrator.Log = &migrateLogger{logger: logger}

	return &Runner{migrator: migrator, logger: logger}, nil
}

// Close releases the source and database handles.
func (runner *Runner) Close() {
	sourceError, dbError := runner.migrator.Close()
	if sourceError != nil {
		runner.logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
	}
	if dbError != nil {
		runner.logger.Error("migration_db_close_failed", slog.Any("error", dbError))
	}
}

// Version returns the applied schema version. Zero means no migration has run.
func (runner *Runner) Version() (uint, error) {
	version, isDirty, err := runner.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migration: failed to get current version: %w", err)
	}
	if isDirty {
		return version, fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", version)
	}
	return version, nil
}

// Up applies all pending migrations.
func (runner *Runner) Up() error {
	return runner.apply("up", runner.migrator.Up)
}

// Down rolls back the given number of migrations.
func (runner *Runner) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("migration: steps must be positive, got %d", steps)
	}
	return runner.apply("down", func() error { return runner.migrator.Steps(-steps) })
}

func (runner *Runner) apply(direction string, step func() error) error {
	fromVersion, err := runner.Version()
	if err != nil {
		return err
	}

	runner.logger.Info("migration_started",
		slog.String("direction", direction),
		slog.Int("current_version", int(fromVersion)),
	)

	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			runner.logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: %s failed: %w", direction, err)
	}

	toVersion, _ := runner.Version()
	runner.logger.Info("migration_successful",
		slog.String("direction", direction),
		slog.Int("from_version", int(fromVersion)),
		slog.Int("to_version", int(toVersion)),
	)

	return nil
}

// RunUp applies all pending migrations in one call.
func RunUp(dsn, migrationsPath string, logger *slog.Logger) error {
	runner, err := NewRunner(dsn, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.Up()
}

// toPgx5DSN ensures the DSN uses the pgx5:// scheme required by golang-migrate/v4.
func toPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger *slog.Logger
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return false
}
