package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/uptrace/bun"

	"github.com/BrandonDHaskell/huella/internal/biometric/service"
	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/store/sqlstore"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
	"github.com/BrandonDHaskell/huella/internal/db"
	"github.com/BrandonDHaskell/huella/internal/db/dbtest"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	h      *db.Handle
	worker *db.Worker
	clock  *clockwork.FakeClock
	ids    *sqlstore.IdentityStore
	fps    *sqlstore.FingerprintStore
	reader *sqlstore.Reader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := dbtest.Open(t)
	return &fixture{
		h:      h,
		worker: dbtest.Worker(t, h),
		clock:  clockwork.NewFakeClockAt(t0),
		ids:    sqlstore.NewIdentityStore(h.DB),
		fps:    sqlstore.NewFingerprintStore(),
		reader: sqlstore.NewReader(h),
	}
}

func (f *fixture) enrollment(fps store.FingerprintStore, ids store.IdentityStore) *service.EnrollmentService {
	if fps == nil {
		fps = f.fps
	}
	if ids == nil {
		ids = f.ids
	}
	return service.NewEnrollmentService(service.EnrollmentDeps{
		Runner:       f.worker,
		Identities:   ids,
		Fingerprints: fps,
		Reader:       f.reader,
		Clock:        f.clock,
	})
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := f.h.NewRaw(query, args...).Scan(context.Background(), &n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

// failingFingerprints fails every Upsert after the identity was resolved.
type failingFingerprints struct {
	store.FingerprintStore
	err error
}

func (f failingFingerprints) Upsert(context.Context, bun.IDB, int64, int, string, time.Time) error {
	return f.err
}

// flakyIdentities returns db.ErrConflict for the first n Resolve calls.
type flakyIdentities struct {
	store.IdentityStore

	mu    sync.Mutex
	n     int
	calls int
}

func (f *flakyIdentities) Resolve(ctx context.Context, idb bun.IDB, externalID, name string, at time.Time) (store.Identity, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.n
	f.mu.Unlock()
	if fail {
		return store.Identity{}, db.ErrConflict
	}
	return f.IdentityStore.Resolve(ctx, idb, externalID, name, at)
}

var errDiskFull = errors.New("disk full")

func slotOf(s string) types.SlotValue { return types.SlotValue(s) }
