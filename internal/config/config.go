// Package config provides centralized configuration for the importer.
// Values come from an optional config file, environment variables and
// tag defaults, and are validated on startup to fail fast on misconfiguration.
package config

import (
	"errors"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required unless dry run)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds file reading and row processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// Delimiter is the field separator for delimited files (default: ",")
	Delimiter string `env:"IMPORT_DELIMITER" default:","`

	// SaveTimeout bounds a single product insert (default: 10s)
	SaveTimeout time.Duration `env:"IMPORT_SAVE_TIMEOUT" default:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ErrDatabaseURLRequired is returned by RequireDatabase when no URL is configured.
var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required unless running in test mode")

// RequireDatabase checks the settings needed to persist products.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return ErrDatabaseURLRequired
	}
	return nil
}

// DelimiterRune returns the configured delimiter as a rune.
// "tab" and a literal backslash-t are accepted for tab separated files.
func (c *ImportConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "", ",":
		return ','
	case "tab", `\t`:
		return '\t'
	}
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}
