// Package dbtest opens migrated in-memory SQLite handles for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/BrandonDHaskell/huella/internal/db"
)

// Open returns an in-memory SQLite handle with the same PRAGMAs and schema
// as production. The handle is closed automatically when the test finishes.
func Open(t testing.TB) *db.Handle {
	t.Helper()

	// Each test gets its own in-memory database. The shared-cache URI keeps
	// it alive for the lifetime of the pool (sql.DB may reopen the conn).
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("dbtest.Open: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		t.Fatalf("dbtest.Open: ping: %v", err)
	}

	h := db.Wrap(conn, "sqlite")
	if err := db.Migrate(context.Background(), h); err != nil {
		_ = h.Close()
		t.Fatalf("dbtest.Open: migrate: %v", err)
	}

	t.Cleanup(func() { _ = h.Close() })
	return h
}

// Worker returns a single-writer db.Worker over h, closed on cleanup.
func Worker(t testing.TB, h *db.Handle) *db.Worker {
	t.Helper()

	w := db.NewWorker(h.DB, 1)
	t.Cleanup(w.Close)
	return w
}
