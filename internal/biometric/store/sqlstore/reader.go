package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
	dbpkg "github.com/BrandonDHaskell/huella/internal/db"
)

// Reader runs the read-only projections with sqlx over the same pool the
// writers use. Each projection is a single statement.
type Reader struct {
	db *sqlx.DB
}

func NewReader(h *dbpkg.Handle) *Reader {
	return &Reader{db: sqlx.NewDb(h.DB.DB, h.DriverName)}
}

const exportActiveQuery = `
SELECT
  i.id           AS user_internal_id,
  i.external_id  AS user_id_str,
  i.display_name AS name,
  f.template     AS template,
  f.slot         AS finger_index
FROM fingerprints f
JOIN identities i ON f.identity_id = i.id
WHERE i.status = ?
ORDER BY i.id, f.slot`

// ExportActive returns every template owned by an active identity.
func (r *Reader) ExportActive(ctx context.Context) ([]types.VerificationRow, error) {
	rows := []types.VerificationRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(exportActiveQuery), store.StatusActive); err != nil {
		return nil, fmt.Errorf("ExportActive: %w", err)
	}
	return rows, nil
}

const listEnrollmentsQuery = `
SELECT
  f.id,
  i.external_id,
  i.display_name,
  f.slot,
  f.created_at_ms,
  i.status
FROM fingerprints f
JOIN identities i ON f.identity_id = i.id
ORDER BY f.created_at_ms DESC, f.id DESC`

func (r *Reader) ListEnrollments(ctx context.Context) ([]types.EnrollmentRow, error) {
	rows := []types.EnrollmentRow{}
	if err := r.db.SelectContext(ctx, &rows, listEnrollmentsQuery); err != nil {
		return nil, fmt.Errorf("ListEnrollments: %w", err)
	}
	for i := range rows {
		rows[i].CreatedAt = formatMs(rows[i].CreatedAtMs)
	}
	return rows, nil
}

const listAccessLogsQuery = `
SELECT
  a.id,
  a.access_time_ms,
  a.status,
  a.method,
  i.display_name,
  i.external_id
FROM access_logs a
LEFT JOIN identities i ON a.identity_id = i.id
ORDER BY a.access_time_ms DESC, a.id DESC
LIMIT ?`

// ListAccessLogs returns the newest limit entries, newest first.
func (r *Reader) ListAccessLogs(ctx context.Context, limit int) ([]types.AccessLogRow, error) {
	rows := []types.AccessLogRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(listAccessLogsQuery), limit); err != nil {
		return nil, fmt.Errorf("ListAccessLogs: %w", err)
	}
	for i := range rows {
		rows[i].AccessTime = formatMs(rows[i].AccessTimeMs)
	}
	return rows, nil
}

// Ping reports whether the database answers.
func (r *Reader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
