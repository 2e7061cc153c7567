package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		external_id TEXT UNIQUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		currency_id TEXT NOT NULL,
		count REAL NOT NULL CHECK (count > 0),
		price REAL NOT NULL CHECK (price > 0),
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_user_created ON deals (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TIMESTAMP NOT NULL,
		total_value REAL NOT NULL,
		total_invested REAL NOT NULL,
		profit REAL NOT NULL,
		profit_percentage REAL NOT NULL,
		max_value REAL NOT NULL,
		min_value REAL NOT NULL,
		UNIQUE (user_id, date)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		external_id TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		currency_id TEXT NOT NULL,
		count DOUBLE PRECISION NOT NULL CHECK (count > 0),
		price DOUBLE PRECISION NOT NULL CHECK (price > 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_user_created ON deals (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TIMESTAMPTZ NOT NULL,
		total_value DOUBLE PRECISION NOT NULL,
		total_invested DOUBLE PRECISION NOT NULL,
		profit DOUBLE PRECISION NOT NULL,
		profit_percentage DOUBLE PRECISION NOT NULL,
		max_value DOUBLE PRECISION NOT NULL,
		min_value DOUBLE PRECISION NOT NULL,
		UNIQUE (user_id, date)
	)`,
}

// Drop order respects foreign keys.
var dropStatements = []string{
	`DROP TABLE IF EXISTS portfolio_snapshots`,
	`DROP TABLE IF EXISTS deals`,
	`DROP TABLE IF EXISTS users`,
}

// Migrate creates any missing table or index. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string, log zerolog.Logger) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = sqliteSchema
	case DriverPostgres:
		stmts = postgresSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	log.Info().Str("driver", driver).Int("statements", len(stmts)).Msg("schema up to date")
	return nil
}

// Drop removes every table the service owns.
func Drop(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	for _, stmt := range dropStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}
	log.Warn().Msg("schema dropped")
	return nil
}
