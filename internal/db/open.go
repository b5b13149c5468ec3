package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Driver string // "sqlite" | "postgres" | "mysql"
	DSN    string // required for postgres/mysql
	Path   string // sqlite file, used when DSN is empty
	Env    string // "dev" | "prod"

	MaxOpenConns int
}

// Handle bundles the bun DB with the database/sql driver name so read-side
// helpers (sqlx) can bind placeholders for the same engine.
type Handle struct {
	*bun.DB
	Driver     string // normalized: sqlite | postgres | mysql
	DriverName string // database/sql driver: sqlite | pgx | mysql
}

// SQLiteDSN builds the modernc.org/sqlite DSN with the per-connection PRAGMAs
// used everywhere:
// - foreign_keys ON (cascade / set-null rules live in the schema)
// - WAL for better concurrency
// - synchronous NORMAL for performance with good safety
// - busy_timeout to reduce SQLITE_BUSY under load
func SQLiteDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		path,
	)
}

func Open(ctx context.Context, cfg Config) (*Handle, error) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	driverName, dsn := cfg.Driver, cfg.DSN
	switch cfg.Driver {
	case "sqlite":
		if dsn == "" {
			if cfg.Path == "" {
				cfg.Path = "./data/huella.db"
			}
			// Ensure DB parent directory exists.
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("mkdir db dir: %w", err)
			}
			dsn = SQLiteDSN(cfg.Path)
		}
	case "postgres":
		// pgx/v5/stdlib registers itself as "pgx".
		driverName = "pgx"
	case "mysql":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// Strong safety for SQLite in servers: single connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// Validate connection early.
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	h := Wrap(sqlDB, cfg.Driver)

	// Apply migrations.
	if err := Migrate(ctx, h); err != nil {
		_ = h.Close()
		return nil, err
	}

	return h, nil
}

// Wrap builds a Handle over an already opened *sql.DB. Tests use it with
// in-memory SQLite connections.
func Wrap(sqlDB *sql.DB, driver string) *Handle {
	var bdb *bun.DB
	driverName := driver
	switch driver {
	case "postgres":
		bdb = bun.NewDB(sqlDB, pgdialect.New())
		driverName = "pgx"
	case "mysql":
		bdb = bun.NewDB(sqlDB, mysqldialect.New())
	default:
		driver = "sqlite"
		driverName = "sqlite"
		bdb = bun.NewDB(sqlDB, sqlitedialect.New())
	}
	return &Handle{DB: bdb, Driver: driver, DriverName: driverName}
}

// WriterCount returns how many transaction goroutines the Worker should run.
// SQLite allows a single writer; server engines get one per pooled connection
// unless configured explicitly.
func (h *Handle) WriterCount(configured int) int {
	if h.Driver == "sqlite" {
		return 1
	}
	if configured > 0 {
		return configured
	}
	if n := h.DB.DB.Stats().MaxOpenConnections; n > 0 {
		return n
	}
	return 4
}
