package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// DB is a migrated connection pool together with the goqu dialect it speaks.
type DB struct {
	*sql.DB
	dialect string
}

func (d *DB) Dialect() string {
	return d.dialect
}

// Goqu returns a query builder bound to the pool.
func (d *DB) Goqu() *goqu.Database {
	return goqu.New(d.dialect, d.DB)
}

// Open connects to SQLite (file path) or PostgreSQL (postgres:// DSN),
// pings the server and applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	driver, dialect, dsn := resolve(databaseURL)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY between the click workers and requests
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("dialect", dialect).Msg("database connection successful")

	if err := migrate(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{DB: conn, dialect: dialect}, nil
}

func resolve(databaseURL string) (driver, dialect, dsn string) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "pgx", DialectPostgres, databaseURL
	}
	return "sqlite", DialectSQLite, formatDBPath(databaseURL)
}

func formatDBPath(path string) string {
	path = strings.TrimPrefix(path, "file:")
	if path == "" {
		path = "shortly.db"
	}

	// Add pragmas for better performance and safety
	// See: https://pkg.go.dev/modernc.org/sqlite#pkg-overview
	params := url.Values{}
	params.Set("mode", "rwc")
	params.Set("_time_format", "sqlite")
	params.Set("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "busy_timeout(5000)")

	return "file:" + path + "?" + params.Encode()
}

func migrate(ctx context.Context, conn *sql.DB, dialect string) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	gooseDialect := goose.DialectSQLite3
	if dialect == DialectPostgres {
		gooseDialect = goose.DialectPostgres
	}

	provider, err := goose.NewProvider(gooseDialect, conn, fsys)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("applied", len(results)).Msg("migrations completed successfully")
	return nil
}
