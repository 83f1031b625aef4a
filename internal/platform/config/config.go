// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. An optional '.env'
file is loaded first with 'joho/godotenv'; variables already present in the
environment always win.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Kafka) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/taibuivan/addressbook/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the address book API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// TokenBackend selects where auth tokens live: "postgres" or "redis".
	TokenBackend string `env:"TOKEN_BACKEND" envDefault:"postgres"`

	// Key-Value Store (Redis), required only for the redis token backend.
	RedisURL string `env:"REDIS_URL"`

	// Event streaming (Kafka). Empty brokers disable both producer and consumer.
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaAddressTopic string   `env:"KAFKA_ADDRESS_TOPIC" envDefault:"addressbook.address.events"`
	KafkaUserTopic    string   `env:"KAFKA_USER_TOPIC"    envDefault:"identity.user.deleted"`
	KafkaGroupID      string   `env:"KAFKA_GROUP_ID"      envDefault:"addressbook"`

	// KafkaPublishTimeout bounds how long an address write waits on the broker.
	KafkaPublishTimeout time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"2s"`

	// Address field bounds. The schema columns are VARCHAR(300).
	StreetMaxLen   int `env:"ADDRESS_STREET_MAX_LEN"   envDefault:"300"`
	CityMaxLen     int `env:"ADDRESS_CITY_MAX_LEN"     envDefault:"300"`
	PostcodeMaxLen int `env:"ADDRESS_POSTCODE_MAX_LEN" envDefault:"300"`
	CountryMaxLen  int `env:"ADDRESS_COUNTRY_MAX_LEN"  envDefault:"300"`

	// BulkDeleteImplicitAll restores the legacy behaviour where a bulk delete
	// without ids wipes the caller's whole collection. Off by default: callers
	// must pass all=true instead.
	BulkDeleteImplicitAll bool `env:"BULK_DELETE_IMPLICIT_ALL" envDefault:"false"`

	// Cross-Origin Resource Sharing
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A missing .env file is the normal production case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces cross-field rules the struct tags cannot express.
func (c *Config) validate() error {
	switch c.TokenBackend {
	case constants.TokenBackendPostgres:
	case constants.TokenBackendRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required when TOKEN_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown TOKEN_BACKEND %q", c.TokenBackend)
	}

	for name, value := range map[string]int{
		"ADDRESS_STREET_MAX_LEN":   c.StreetMaxLen,
		"ADDRESS_CITY_MAX_LEN":     c.CityMaxLen,
		"ADDRESS_POSTCODE_MAX_LEN": c.PostcodeMaxLen,
		"ADDRESS_COUNTRY_MAX_LEN":  c.CountryMaxLen,
	} {
		if value < 1 {
			return fmt.Errorf("config: %s must be positive, got %d", name, value)
		}
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// KafkaEnabled reports whether any Kafka broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// AllowedOrigins returns the configured CORS origins.
func (c *Config) AllowedOrigins() []string {
	return c.CORSOrigins
}
