package db

import (
	"context"
	"errors"
	"sync"

	"github.com/uptrace/bun"
)

type TxFn func(ctx context.Context, tx bun.Tx) error

var ErrWorkerClosed = errors.New("db worker closed")

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker runs transactional jobs on a fixed set of goroutines. With one
// writer (SQLite) every write is serialized; server engines run several so
// unrelated enrollments do not queue behind each other.
type Worker struct {
	db   *bun.DB
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewWorker(db *bun.DB, writers int) *Worker {
	if writers <= 0 {
		writers = 1
	}
	w := &Worker{
		db:   db,
		jobs: make(chan job, 256),
	}
	w.wg.Add(writers)
	for i := 0; i < writers; i++ {
		go w.loop()
	}
	return w
}

func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}

// Do runs fn inside a transaction and returns its outcome. The transaction
// is bound to ctx: if ctx ends before commit the driver rolls it back, so a
// caller that sees a context error never has a committed write behind it.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWorkerClosed
	}
	// Bail out if the caller's context expires while the buffer is full.
	select {
	case w.jobs <- j:
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}
	w.mu.RUnlock()

	// Wait for the real outcome even if ctx expires meanwhile; the loop
	// returns promptly because BeginTx/Commit observe the same ctx.
	return <-ch
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for j := range w.jobs {
		j.ch <- w.run(j)
	}
}

func (w *Worker) run(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		return err
	}

	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	// Last check before making the write visible.
	if err := j.ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
