package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	dbpkg "github.com/BrandonDHaskell/huella/internal/db"
)

type IdentityStore struct {
	db *bun.DB
}

func NewIdentityStore(db *bun.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

// Resolve returns the identity for externalID, creating it as active when
// absent and refreshing its display name when it changed. It must run inside
// the caller's transaction.
//
// Creation is a conditional insert that does nothing on an external_id
// conflict; the row is then read back with a locking read so a concurrent
// creator's committed row is seen. If it still cannot be seen the caller gets
// db.ErrConflict and should retry in a new transaction.
func (s *IdentityStore) Resolve(ctx context.Context, idb bun.IDB, externalID, displayName string, at time.Time) (store.Identity, error) {
	nowMs := at.UTC().UnixMilli()

	m := new(identityModel)
	err := idb.NewSelect().Model(m).Where("external_id = ?", externalID).Limit(1).Scan(ctx)
	switch {
	case err == nil:
		return s.refreshName(ctx, idb, m, displayName, nowMs)
	case !errors.Is(err, sql.ErrNoRows):
		return store.Identity{}, fmt.Errorf("Resolve select %s: %w", externalID, dbpkg.MapDBError(err))
	}

	ins := &identityModel{
		ExternalID:  externalID,
		DisplayName: displayName,
		Status:      store.StatusActive,
		CreatedAtMs: nowMs,
		UpdatedAtMs: nowMs,
	}
	q := idb.NewInsert().Model(ins).Returning("NULL")
	if idb.Dialect().Name() == dialect.MySQL {
		q = q.Ignore()
	} else {
		q = q.On("CONFLICT (external_id) DO NOTHING")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return store.Identity{}, fmt.Errorf("Resolve insert %s: %w", externalID, dbpkg.MapDBError(err))
	}
	created, _ := res.RowsAffected()

	m = new(identityModel)
	sel := idb.NewSelect().Model(m).Where("external_id = ?", externalID).Limit(1)
	if created == 0 && idb.Dialect().Name() != dialect.SQLite {
		// Lost the race: read the latest committed row, not our snapshot.
		sel = sel.For("UPDATE")
	}
	if err := sel.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Identity{}, fmt.Errorf("Resolve %s: %w", externalID, dbpkg.ErrConflict)
		}
		return store.Identity{}, fmt.Errorf("Resolve reread %s: %w", externalID, dbpkg.MapDBError(err))
	}

	if created == 0 {
		return s.refreshName(ctx, idb, m, displayName, nowMs)
	}
	return m.toIdentity(), nil
}

func (s *IdentityStore) refreshName(ctx context.Context, idb bun.IDB, m *identityModel, displayName string, nowMs int64) (store.Identity, error) {
	if m.DisplayName == displayName {
		return m.toIdentity(), nil
	}
	if _, err := idb.NewUpdate().
		Model((*identityModel)(nil)).
		Set("display_name = ?", displayName).
		Set("updated_at_ms = ?", nowMs).
		Where("id = ?", m.ID).
		Exec(ctx); err != nil {
		return store.Identity{}, fmt.Errorf("Resolve update name %s: %w", m.ExternalID, dbpkg.MapDBError(err))
	}
	m.DisplayName = displayName
	m.UpdatedAtMs = nowMs
	return m.toIdentity(), nil
}

func (s *IdentityStore) LookupByID(ctx context.Context, id int64) (store.Identity, bool, error) {
	return s.lookup(ctx, "id = ?", id)
}

func (s *IdentityStore) LookupByExternalID(ctx context.Context, externalID string) (store.Identity, bool, error) {
	return s.lookup(ctx, "external_id = ?", externalID)
}

func (s *IdentityStore) lookup(ctx context.Context, where string, arg any) (store.Identity, bool, error) {
	m := new(identityModel)
	err := s.db.NewSelect().Model(m).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Identity{}, false, nil
	}
	if err != nil {
		return store.Identity{}, false, fmt.Errorf("identity lookup: %w", err)
	}
	return m.toIdentity(), true, nil
}
