package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// DB is the journal database handle. Postgres connections come from a pgx
// pool wrapped as *sql.DB; SQLite goes through the modernc driver.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
}

// ParseDSN picks the dialect from the DSN scheme. SQLite accepts sqlite://path,
// file: URIs, :memory: and bare paths ending in .db / .sqlite.
func ParseDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:",
		strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return DialectSQLite, dsn, nil
	default:
		return "", "", common.ConfigError("JOURNAL_DSN must be a postgres:// URL or a sqlite path")
	}
}

// Open connects and makes sure the extract_job table exists.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dialect, dsn, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	logger.Info("journal.connect", "dialect", dialect)

	var db *DB
	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("journal.connect_failed", "error", err)
			return nil, err
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "tradedoc-extract"

		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			logger.Error("journal.connect_failed", "error", err)
			return nil, err
		}
		db = &DB{SQL: stdlib.OpenDBFromPool(pool), Dialect: dialect, pool: pool}
	case DialectSQLite:
		sqlDB, err := sql.Open("sqlite", dsn)
		if err != nil {
			logger.Error("journal.connect_failed", "error", err)
			return nil, err
		}
		// a :memory: database exists per connection
		sqlDB.SetMaxOpenConns(1)
		db = &DB{SQL: sqlDB, Dialect: dialect}
	}

	if err := db.migrate(ctx); err != nil {
		db.Close(logger)
		logger.Error("journal.migrate_failed", "error", err)
		return nil, err
	}
	logger.Info("journal.connected", "dialect", dialect)
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	ts := "TIMESTAMP"
	if db.Dialect == DialectPostgres {
		ts = "TIMESTAMPTZ"
	}
	_, err := db.SQL.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS extract_job (
	id            TEXT PRIMARY KEY,
	source_path   TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	model         TEXT NOT NULL,
	status        TEXT NOT NULL,
	pages         INTEGER,
	error_message TEXT,
	started_at    `+ts+` NOT NULL,
	finished_at   `+ts+`
)`)
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func (db *DB) rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.SQL.Close(); err != nil {
		logger.Error("journal.close_failed", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck pings using database/sql to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.SQL.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
