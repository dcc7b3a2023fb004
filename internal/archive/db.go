package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Config holds connection settings for the record archive.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
}

// dialect selects placeholder style and DDL flavor.
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// detectDialect picks the driver from the DSN shape: postgres URLs go to
// pgx, everything else is treated as a sqlite path (":memory:" included).
func detectDialect(dsn string) (dialect, string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return dialectPostgres, "pgx"
	}
	return dialectSQLite, "sqlite"
}

// rebind rewrites ? placeholders to $1..$N for postgres. Queries in this
// package are written with ? and rebound per dialect.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
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

// open connects to the archive database and ensures the schema exists.
func open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, dialect, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d, driver := detectDialect(cfg.DSN)
	logger.Info("archive.db.connect", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		logger.Error("archive.db.open_failed", "error", err)
		return nil, d, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("archive.db.ping_failed", "error", err)
		_ = db.Close()
		return nil, d, err
	}

	if err := migrate(ctx, db, d); err != nil {
		logger.Error("archive.db.migrate_failed", "error", err)
		_ = db.Close()
		return nil, d, err
	}

	logger.Info("archive.db.connected")
	return db, d, nil
}

// migrate creates the records table if it does not exist. JSON-bearing
// columns and timestamps are TEXT (RFC3339) so the same DDL and scan path
// serve both dialects.
func migrate(ctx context.Context, db *sql.DB, _ dialect) error {
	ddl := `CREATE TABLE IF NOT EXISTS records (
		document_id        TEXT PRIMARY KEY,
		title              TEXT NOT NULL,
		content            TEXT NOT NULL,
		metadata           TEXT NOT NULL,
		extracted_fields   TEXT NOT NULL,
		source_type        TEXT NOT NULL,
		processed_at       TEXT NOT NULL,
		confidence_score   DOUBLE PRECISION NOT NULL,
		processing_method  TEXT NOT NULL
	)`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
