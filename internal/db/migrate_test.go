package db_test

import (
	"context"
	"testing"

	"github.com/BrandonDHaskell/huella/internal/db"
	"github.com/BrandonDHaskell/huella/internal/db/dbtest"
)

func TestMigrate_Idempotent(t *testing.T) {
	h := dbtest.Open(t)
	ctx := context.Background()

	// dbtest.Open already migrated once; a second run must be a no-op.
	if err := db.Migrate(ctx, h); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var n int
	if err := h.NewRaw("SELECT COUNT(*) FROM schema_migrations").Scan(ctx, &n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 recorded migration, got %d", n)
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	h := dbtest.Open(t)
	ctx := context.Background()

	for _, table := range []string{"identities", "fingerprints", "access_logs"} {
		var n int
		err := h.NewRaw(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(ctx, &n)
		if err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestMigrate_SlotUniquePerIdentity(t *testing.T) {
	h := dbtest.Open(t)
	ctx := context.Background()

	if _, err := h.ExecContext(ctx,
		"INSERT INTO identities(external_id, display_name, status, created_at_ms, updated_at_ms) VALUES ('EMP001', 'Ana', 'active', 1, 1)",
	); err != nil {
		t.Fatalf("insert identity: %v", err)
	}

	insert := "INSERT INTO fingerprints(identity_id, slot, template, created_at_ms, updated_at_ms) VALUES (1, 1, 'AAAA', 1, 1)"
	if _, err := h.ExecContext(ctx, insert); err != nil {
		t.Fatalf("first fingerprint: %v", err)
	}
	_, err := h.ExecContext(ctx, insert)
	if err == nil {
		t.Fatal("expected unique violation on duplicate slot")
	}
	if db.MapDBError(err) != db.ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}
