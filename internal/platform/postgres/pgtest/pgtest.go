// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

//go:build integration

// Package pgtest starts a disposable PostgreSQL container with the schema
// migrated, for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taibuivan/addressbook/internal/platform/migration"
	"github.com/taibuivan/addressbook/internal/platform/postgres"
)

// Database is a running, migrated PostgreSQL container.
type Database struct {
	DSN       string
	Pool      *pgxpool.Pool
	container tc.Container
}

// Start launches the container, applies every migration and opens a pool.
func Start(ctx context.Context) (*Database, error) {
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "addressbook_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pgtest: start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/addressbook_test?sslmode=disable", host, port.Port())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := migration.RunUp(dsn, migrationsPath(), logger); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.Options{MaxConns: 20, MinConns: 1}, logger)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Database{DSN: dsn, Pool: pool, container: container}, nil
}

// CreateUser inserts a bare account row and returns its id.
func (database *Database) CreateUser(ctx context.Context, id, username string) error {
	_, err := database.Pool.Exec(ctx,
		`INSERT INTO users.account (id, username, passwordhash) VALUES ($1, $2, 'x')`, id, username)
	return err
}

// Stop closes the pool and removes the container.
func (database *Database) Stop(ctx context.Context) {
	database.Pool.Close()
	_ = database.container.Terminate(ctx)
}

// migrationsPath locates data/migrations from this source file.
func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "data", "migrations")
}
