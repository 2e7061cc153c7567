// Package database opens the deal store connection and owns its schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// MemoryDSN opens a private in-memory SQLite database.
	MemoryDSN = ":memory:"
)

// Open connects to the store selected by driver and pings it. For SQLite, dsn
// is a file path (its directory is created) or MemoryDSN; for Postgres it is
// a lib/pq connection string.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverSQLite:
		db, err = openSQLite(dsn)
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(30 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path != MemoryDSN && !strings.HasPrefix(path, "file:") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		path = abs
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != MemoryDSN {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; an in-memory database also lives in one
	// connection only.
	db.SetMaxOpenConns(1)
	return db, nil
}
