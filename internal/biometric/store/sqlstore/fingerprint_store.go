package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	dbpkg "github.com/BrandonDHaskell/huella/internal/db"
)

type FingerprintStore struct{}

func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{}
}

// Upsert writes template into (identityID, slot) with one statement. An
// occupied slot keeps its row id and created_at_ms; only template and
// updated_at_ms change.
func (s *FingerprintStore) Upsert(ctx context.Context, idb bun.IDB, identityID int64, slot int, template string, at time.Time) error {
	nowMs := at.UTC().UnixMilli()
	m := &fingerprintModel{
		IdentityID:  identityID,
		Slot:        slot,
		Template:    template,
		CreatedAtMs: nowMs,
		UpdatedAtMs: nowMs,
	}

	q := idb.NewInsert().Model(m).Returning("NULL")
	if idb.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE").
			Set("template = VALUES(template)").
			Set("updated_at_ms = VALUES(updated_at_ms)")
	} else {
		q = q.On("CONFLICT (identity_id, slot) DO UPDATE").
			Set("template = EXCLUDED.template").
			Set("updated_at_ms = EXCLUDED.updated_at_ms")
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("Upsert fingerprint identity=%d slot=%d: %w", identityID, slot, dbpkg.MapDBError(err))
	}
	return nil
}

// Delete removes exactly one fingerprint row. The owning identity is left alone.
func (s *FingerprintStore) Delete(ctx context.Context, idb bun.IDB, id int64) error {
	res, err := idb.NewDelete().
		Model((*fingerprintModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("Delete fingerprint %d: %w", id, dbpkg.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete fingerprint %d: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
