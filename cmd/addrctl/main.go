// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command addrctl provides operator utilities for the address book.
//
// # Usage
//
//	addrctl user create -username ada -email ada@example.com -password secret123
//	addrctl user delete -user ada
//	addrctl seed -per-user 100 [-seed 42]
//	addrctl migrate up | down [-steps 1] | version
//
// It reads the same environment variables as the API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/taibuivan/addressbook/internal/address"
	"github.com/taibuivan/addressbook/internal/address/seed"
	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/config"
	"github.com/taibuivan/addressbook/internal/platform/constants"
	"github.com/taibuivan/addressbook/internal/platform/migration"
	pgstore "github.com/taibuivan/addressbook/internal/platform/postgres"
	redisstore "github.com/taibuivan/addressbook/internal/platform/redis"
	"github.com/taibuivan/addressbook/internal/users/auth"
	"github.com/taibuivan/addressbook/internal/users/lifecycle"
)

const usage = `usage:
  addrctl user create -username NAME [-email EMAIL] -password PASSWORD
  addrctl user delete -user ID_OR_USERNAME
  addrctl seed [-per-user N] [-seed S]
  addrctl migrate up | down [-steps N] | version`

var errUsage = errors.New(usage)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", "addrctl"))

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches one subcommand.
func run(ctx context.Context, args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "migrate":
		return runMigrate(cfg, args[1:], out, logger)
	case "user", "seed":
	default:
		return errUsage
	}

	env, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	if args[0] == "seed" {
		return runSeed(ctx, env, args[1:], out, logger)
	}
	return runUser(ctx, env, args[1:], out)
}

// # Environment

// environment holds the stores a subcommand may need.
type environment struct {
	users     *auth.PostgresUserRepository
	auth      *auth.Service
	addresses *address.Service
	cascade   *lifecycle.Cascade
	closers   []func()
}

// open connects to PostgreSQL, and to Redis when it holds the tokens.
func open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*environment, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(connectCtx, cfg.DatabaseURL, pgstore.Options{MaxConns: 2, MinConns: 1}, logger)
	if err != nil {
		return nil, err
	}
	env := &environment{closers: []func(){pool.Close}}

	var tokens auth.TokenStore = auth.NewPostgresTokenStore(pool)
	if cfg.TokenBackend == constants.TokenBackendRedis {
		rdb, err := redisstore.NewClient(connectCtx, cfg.RedisURL, logger)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.closers = append(env.closers, func() { _ = rdb.Close() })
		tokens = auth.NewRedisTokenStore(rdb)
	}

	env.users = auth.NewUserRepository(pool)
	env.auth = auth.NewService(env.users, auth.NewPasswordVerifier(env.users), tokens, logger)
	env.addresses = address.NewService(address.NewPostgresRepository(pool), nil, address.Options{
		Limits: address.Limits{
			Street:   cfg.StreetMaxLen,
			City:     cfg.CityMaxLen,
			Postcode: cfg.PostcodeMaxLen,
			Country:  cfg.CountryMaxLen,
		},
	}, logger)
	env.cascade = lifecycle.NewCascade(tokens, env.addresses, env.users, logger)

	return env, nil
}

// Close releases connections in reverse order of opening.
func (env *environment) Close() {
	for i := len(env.closers) - 1; i >= 0; i-- {
		env.closers[i]()
	}
}

// # Subcommands

func runUser(ctx context.Context, env *environment, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "create":
		flags := flag.NewFlagSet("user create", flag.ContinueOnError)
		var input auth.CreateUserInput
		flags.StringVar(&input.Username, "username", "", "login name")
		flags.StringVar(&input.Email, "email", "", "contact email")
		flags.StringVar(&input.Password, "password", "", "plain text password")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		user, err := env.auth.CreateUser(ctx, input)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(out, "created user %s (%s)\n", user.Username, user.ID)
		return nil

	case "delete":
		flags := flag.NewFlagSet("user delete", flag.ContinueOnError)
		identifier := flags.String("user", "", "user id or username")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		if *identifier == "" {
			return errUsage
		}

		user, err := env.auth.FindUser(ctx, *identifier)
		if err != nil {
			return describe(err)
		}
		if err := env.cascade.RemoveUser(ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted user %s (%s)\n", user.Username, user.ID)
		return nil
	}

	return errUsage
}

func runSeed(ctx context.Context, env *environment, args []string, out io.Writer, logger *slog.Logger) error {
	flags := flag.NewFlagSet("seed", flag.ContinueOnError)
	perUser := flags.Int("per-user", 100, "addresses to generate per user")
	seedValue := flags.Uint64("seed", 0, "faker seed (0 = time based)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *seedValue == 0 {
		*seedValue = uint64(time.Now().UnixNano())
	}

	users, err := env.users.List(ctx)
	if err != nil {
		return err
	}

	owners := make([]string, 0, len(users))
	for _, user := range users {
		owners = append(owners, user.ID)
	}

	report, err := seed.New(env.addresses, *seedValue, logger).Run(ctx, owners, *perUser)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "seeded %d addresses for %d users (%d duplicates skipped)\n", report.Created, len(owners), report.Duplicates)
	return nil
}

func runMigrate(cfg *config.Config, args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	runner, err := migration.NewRunner(cfg.DatabaseURL, cfg.MigrationPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	switch args[0] {
	case "up":
		return runner.Up()

	case "down":
		flags := flag.NewFlagSet("migrate down", flag.ContinueOnError)
		steps := flags.Int("steps", 1, "migrations to revert")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return runner.Down(*steps)

	case "version":
		version, err := runner.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "schema version %d\n", version)
		return nil
	}

	return errUsage
}

// describe expands validation details into a single line.
func describe(err error) error {
	appErr := apperr.As(err)
	if appErr == nil || len(appErr.Details) == 0 {
		return err
	}

	parts := make([]string, 0, len(appErr.Details))
	for _, detail := range appErr.Details {
		parts = append(parts, detail.Field+": "+detail.Message)
	}
	return fmt.Errorf("%s (%s)", appErr.Message, strings.Join(parts, "; "))
}
