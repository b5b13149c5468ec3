// Package store defines the persistence contracts for identities,
// fingerprint templates and the access log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var ErrNotFound = errors.New("not found")

type Identity struct {
	ID          int64
	ExternalID  string
	DisplayName string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdentityLookup finds identities outside of any transaction.
type IdentityLookup interface {
	LookupByID(ctx context.Context, id int64) (Identity, bool, error)
	LookupByExternalID(ctx context.Context, externalID string) (Identity, bool, error)
}

// IdentityStore resolves external ids to durable identities. Resolve runs on
// the caller's transaction and never creates a second identity for the same
// external id.
type IdentityStore interface {
	IdentityLookup
	Resolve(ctx context.Context, idb bun.IDB, externalID, displayName string, at time.Time) (Identity, error)
}

// FingerprintStore writes templates into per-identity slots. Upsert is a
// single conditional write; Delete reports ErrNotFound when no row matched.
type FingerprintStore interface {
	Upsert(ctx context.Context, idb bun.IDB, identityID int64, slot int, template string, at time.Time) error
	Delete(ctx context.Context, idb bun.IDB, id int64) error
}

// AccessLogRecord is one access attempt. IdentityID is nil when the attempt
// could not be tied to a known identity.
type AccessLogRecord struct {
	IdentityID *int64
	At         time.Time
	Status     string
	Method     string
}

// AccessLogStore persists access attempts as an append-only log.
type AccessLogStore interface {
	Append(ctx context.Context, rec AccessLogRecord) error
}

// Reader serves the read-only projections.
type Reader interface {
	ExportActive(ctx context.Context) ([]types.VerificationRow, error)
	ListEnrollments(ctx context.Context) ([]types.EnrollmentRow, error)
	ListAccessLogs(ctx context.Context, limit int) ([]types.AccessLogRow, error)
}
