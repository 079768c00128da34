// Package storage persists imported products to PostgreSQL.
package storage

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/ProductImport/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Connect opens and pings a pool configured from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the product table if needed.
func EnsureSchema(ctx context.Context, db DBTX) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS product_data (
	id               BIGSERIAL PRIMARY KEY,
	product_name     VARCHAR(50) NOT NULL,
	product_desc     VARCHAR(255) NOT NULL,
	product_code     VARCHAR(10) NOT NULL,
	stock            INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	cost             NUMERIC(10, 2) CHECK (cost >= 0),
	added_at         TIMESTAMPTZ,
	discontinued_at  TIMESTAMPTZ,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT product_data_code_key UNIQUE (product_code)
);`
	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
