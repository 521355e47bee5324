package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB wraps database/sql with the driver it was opened on, so queries can be
// rebound to the driver's placeholder style.
type DB struct {
	*sql.DB
	driver string
	pool   *pgxpool.Pool
}

// Open connects to the validation-run store. SQLite (modernc, pure Go)
// serves local and in-memory runs; Postgres goes through a pgx pool wrapped
// for database/sql.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		logger.Info("opening sqlite database", "dsn", cfg.DSN)
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// A single connection keeps in-memory databases coherent.
		db.SetMaxOpenConns(1)
		return &DB{DB: db, driver: DriverSQLite}, nil

	case DriverPostgres:
		logger.Info("connecting to postgres", "dsn", cfg.DSN)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		pc.MaxConns = cfg.MaxConns
		pc.MinConns = cfg.MinConns
		pc.MaxConnLifetime = cfg.MaxConnLifetime
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		pc.ConnConfig.RuntimeParams["application_name"] = "invoice-qc"

		dialCtx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &DB{DB: stdlib.OpenDBFromPool(pool), driver: DriverPostgres, pool: pool}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close closes the database connections gracefully.
func (d *DB) Close(logger *slog.Logger) {
	if err := d.DB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// HealthCheck pings the store to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return d.PingContext(ctx)
}

// Rebind rewrites '?' placeholders to the '$N' style when the underlying
// driver is Postgres. Queries in this package are written with '?'.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the validation_runs table when it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	source         TEXT NOT NULL,
	total_invoices INTEGER NOT NULL,
	valid_count    INTEGER NOT NULL,
	invalid_count  INTEGER NOT NULL,
	report         TEXT NOT NULL
)`
	if _, err := d.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate validation_runs: %w", err)
	}
	return nil
}
