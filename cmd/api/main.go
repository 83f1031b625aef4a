// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the address book HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations (idempotent).
//  4. Select the token backend (PostgreSQL or Redis).
//  5. Connect to Kafka when brokers are configured.
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/taibuivan/addressbook/internal/address"
	"github.com/taibuivan/addressbook/internal/api"
	"github.com/taibuivan/addressbook/internal/platform/config"
	"github.com/taibuivan/addressbook/internal/platform/constants"
	"github.com/taibuivan/addressbook/internal/platform/kafka"
	"github.com/taibuivan/addressbook/internal/platform/migration"
	pgstore "github.com/taibuivan/addressbook/internal/platform/postgres"
	redisstore "github.com/taibuivan/addressbook/internal/platform/redis"
	"github.com/taibuivan/addressbook/internal/users/auth"
	"github.com/taibuivan/addressbook/internal/users/lifecycle"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("token_backend", cfg.TokenBackend),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Options{
		MaxConns:         25,
		MinConns:         2,
		StatementTimeout: 10 * time.Second,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	health := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}

	// ── 4. Token Backend ──────────────────────────────────────────────────
	var tokens auth.TokenStore
	switch cfg.TokenBackend {
	case constants.TokenBackendRedis:
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()

		tokens = auth.NewRedisTokenStore(rdb)
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	default:
		tokens = auth.NewPostgresTokenStore(pool)
	}

	// ── 5. Event Streaming ────────────────────────────────────────────────
	var publisher address.EventPublisher = address.NopPublisher{}
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer func() {
			if cerr := producer.Close(); cerr != nil {
				log.Error("kafka_producer_close_failed", slog.Any("error", cerr))
			}
		}()
		publisher = address.NewKafkaPublisher(producer, cfg.KafkaAddressTopic)
	}

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(userRepository, auth.NewPasswordVerifier(userRepository), tokens, log)

	addressService := address.NewService(address.NewPostgresRepository(pool), publisher, address.Options{
		Limits: address.Limits{
			Street:   cfg.StreetMaxLen,
			City:     cfg.CityMaxLen,
			Postcode: cfg.PostcodeMaxLen,
			Country:  cfg.CountryMaxLen,
		},
		ImplicitAll:    cfg.BulkDeleteImplicitAll,
		PublishTimeout: cfg.KafkaPublishTimeout,
	}, log)

	cascade := lifecycle.NewCascade(tokens, addressService, userRepository, log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	server := api.NewServer(cfg, log, authService, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Address:   address.NewHandler(addressService),
	})

	// ── 7. Background Consumers ───────────────────────────────────────────
	runCtx, stopConsumers := context.WithCancel(context.Background())
	var consumers sync.WaitGroup

	if cfg.KafkaEnabled() {
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaUserTopic,
			GroupID:       cfg.KafkaGroupID,
			RetryInterval: 2 * time.Second,
			MaxAttempts:   10,
		}, log)

		consumers.Add(1)
		go func() {
			defer consumers.Done()
			defer consumer.Close()
			if err := consumer.Run(runCtx, cascade.HandleUserDeleted); err != nil {
				log.Error("user_deleted_consumer_stopped", slog.Any("error", err))
			}
		}()
	}

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	stopConsumers()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	consumers.Wait()
	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger every component receives.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
