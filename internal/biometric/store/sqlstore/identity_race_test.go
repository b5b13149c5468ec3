package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/store/sqlstore"
	"github.com/BrandonDHaskell/huella/internal/db"
)

// racingIDB writes a competing identity row just before the resolver's
// conditional insert, the way a concurrent enrollment of the same user
// would. With hideReread the follow-up read sees nothing.
type racingIDB struct {
	bun.IDB

	ctx        context.Context
	externalID string
	hideReread bool

	selects int
	rivalID int64
	err     error
}

func (r *racingIDB) NewInsert() *bun.InsertQuery {
	res, err := r.IDB.NewRaw(
		"INSERT INTO identities (external_id, display_name, status, created_at_ms, updated_at_ms) VALUES (?, ?, ?, ?, ?)",
		r.externalID, "Rival", store.StatusActive, int64(1), int64(1),
	).Exec(r.ctx)
	if err == nil {
		r.rivalID, err = res.LastInsertId()
	}
	r.err = err
	return r.IDB.NewInsert()
}

func (r *racingIDB) NewSelect() *bun.SelectQuery {
	r.selects++
	if r.hideReread && r.selects > 1 {
		return r.IDB.NewSelect().Where("1 = 0")
	}
	return r.IDB.NewSelect()
}

func TestIdentityStore_Resolve_LostRaceReusesWinner(t *testing.T) {
	h, w := setup(t)
	ids := sqlstore.NewIdentityStore(h.DB)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var (
		got  store.Identity
		race *racingIDB
	)
	inTx(t, w, func(ctx context.Context, tx bun.Tx) error {
		race = &racingIDB{IDB: tx, ctx: ctx, externalID: "EMP001"}
		var err error
		got, err = ids.Resolve(ctx, race, "EMP001", "Ana", now)
		return err
	})

	if race.err != nil {
		t.Fatalf("competing insert: %v", race.err)
	}
	if got.ID != race.rivalID {
		t.Errorf("id = %d, want the competing row %d", got.ID, race.rivalID)
	}
	if got.DisplayName != "Ana" {
		t.Errorf("display name = %q, want the enrolling name", got.DisplayName)
	}
	if n := countRows(t, h, "SELECT COUNT(*) FROM identities WHERE external_id = ?", "EMP001"); n != 1 {
		t.Errorf("expected exactly one identity, got %d", n)
	}
	if n := countRows(t, h, "SELECT COUNT(*) FROM identities WHERE display_name = ?", "Ana"); n != 1 {
		t.Errorf("expected the stored name to be refreshed, got %d rows named Ana", n)
	}
}

func TestIdentityStore_Resolve_InvisibleWinnerIsConflict(t *testing.T) {
	h, w := setup(t)
	ids := sqlstore.NewIdentityStore(h.DB)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := w.Do(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		race := &racingIDB{IDB: tx, ctx: ctx, externalID: "EMP001", hideReread: true}
		_, err := ids.Resolve(ctx, race, "EMP001", "Ana", now)
		return err
	})

	if !errors.Is(err, db.ErrConflict) {
		t.Fatalf("expected db.ErrConflict, got %v", err)
	}
	if !db.IsRetryable(err) {
		t.Error("expected the conflict to be retryable")
	}
	// The transaction rolled back, competing row included.
	if n := countRows(t, h, "SELECT COUNT(*) FROM identities"); n != 0 {
		t.Errorf("expected rollback, found %d identities", n)
	}
}
