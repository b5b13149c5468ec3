package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
	dbpkg "github.com/BrandonDHaskell/huella/internal/db"
)

type AccessLogStore struct {
	writer *dbpkg.Worker
}

func NewAccessLogStore(writer *dbpkg.Worker) *AccessLogStore {
	return &AccessLogStore{writer: writer}
}

// Append inserts one access log row in its own transaction, never one shared
// with an enrollment.
func (s *AccessLogStore) Append(ctx context.Context, rec store.AccessLogRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = types.DefaultAccessStatus
	}
	if rec.Method == "" {
		rec.Method = types.DefaultAccessMethod
	}

	m := &accessLogModel{
		IdentityID:   rec.IdentityID,
		AccessTimeMs: rec.At.UTC().UnixMilli(),
		Status:       rec.Status,
		Method:       rec.Method,
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(m).Returning("NULL").Exec(ctx); err != nil {
			return fmt.Errorf("Append access log: %w", err)
		}
		return nil
	})
}
