package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
)

// AccessLogStore is an in-memory append-only access log.
// It is intended for use in tests and dev environments.
type AccessLogStore struct {
	mu      sync.Mutex
	entries []store.AccessLogRecord
	failErr error
}

func NewAccessLogStore() *AccessLogStore {
	return &AccessLogStore{}
}

// FailWith makes every later Append return err. Pass nil to recover.
func (s *AccessLogStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *AccessLogStore) Append(_ context.Context, rec store.AccessLogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.entries = append(s.entries, rec)
	return nil
}

// Entries returns a copy of all recorded entries. Test-only helper.
func (s *AccessLogStore) Entries() []store.AccessLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccessLogRecord, len(s.entries))
	copy(out, s.entries)
	return out
}
