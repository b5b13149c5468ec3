package sqlstore_test

import (
	"context"
	"strings"
	"testing"

	"github.com/BrandonDHaskell/huella/internal/db"
	"github.com/BrandonDHaskell/huella/internal/db/dbtest"
)

// tmpl returns a structurally valid template of n characters.
func tmpl(seed string, n int) string {
	s := strings.Repeat(seed, n/len(seed)+1)
	return s[:n]
}

// inTx runs fn on the single-writer worker and fails the test on error.
func inTx(t *testing.T, w *db.Worker, fn db.TxFn) {
	t.Helper()
	if err := w.Do(context.Background(), fn); err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func countRows(t *testing.T, h *db.Handle, query string, args ...any) int {
	t.Helper()
	var n int
	if err := h.NewRaw(query, args...).Scan(context.Background(), &n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func setup(t *testing.T) (*db.Handle, *db.Worker) {
	t.Helper()
	h := dbtest.Open(t)
	return h, dbtest.Worker(t, h)
}
