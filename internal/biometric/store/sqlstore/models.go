// Package sqlstore implements the biometric stores on bun (writes) and sqlx
// (read projections) for SQLite, Postgres and MySQL.
package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
)

type identityModel struct {
	bun.BaseModel `bun:"table:identities"`

	ID          int64  `bun:"id,pk,autoincrement"`
	ExternalID  string `bun:"external_id,notnull"`
	DisplayName string `bun:"display_name,notnull"`
	Status      string `bun:"status,notnull"`
	CreatedAtMs int64  `bun:"created_at_ms,notnull"`
	UpdatedAtMs int64  `bun:"updated_at_ms,notnull"`
}

func (m *identityModel) toIdentity() store.Identity {
	return store.Identity{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		DisplayName: m.DisplayName,
		Status:      m.Status,
		CreatedAt:   time.UnixMilli(m.CreatedAtMs).UTC(),
		UpdatedAt:   time.UnixMilli(m.UpdatedAtMs).UTC(),
	}
}

type fingerprintModel struct {
	bun.BaseModel `bun:"table:fingerprints"`

	ID          int64  `bun:"id,pk,autoincrement"`
	IdentityID  int64  `bun:"identity_id,notnull"`
	Slot        int    `bun:"slot,notnull"`
	Template    string `bun:"template,notnull"`
	CreatedAtMs int64  `bun:"created_at_ms,notnull"`
	UpdatedAtMs int64  `bun:"updated_at_ms,notnull"`
}

type accessLogModel struct {
	bun.BaseModel `bun:"table:access_logs"`

	ID           int64  `bun:"id,pk,autoincrement"`
	IdentityID   *int64 `bun:"identity_id"`
	AccessTimeMs int64  `bun:"access_time_ms,notnull"`
	Status       string `bun:"status,notnull"`
	Method       string `bun:"method,notnull"`
}
