package memory

import (
	"context"
	"strings"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
)

// IdentityLookup is a fixed in-memory identity set for tests. It is
// read-only after construction.
type IdentityLookup struct {
	byID       map[int64]store.Identity
	byExternal map[string]store.Identity
}

func NewIdentityLookup(identities ...store.Identity) *IdentityLookup {
	l := &IdentityLookup{
		byID:       make(map[int64]store.Identity, len(identities)),
		byExternal: make(map[string]store.Identity, len(identities)),
	}
	for _, id := range identities {
		id.ExternalID = strings.TrimSpace(id.ExternalID)
		if id.ExternalID == "" || id.ID == 0 {
			continue
		}
		if id.Status == "" {
			id.Status = store.StatusActive
		}
		l.byID[id.ID] = id
		l.byExternal[id.ExternalID] = id
	}
	return l
}

func (l *IdentityLookup) LookupByID(_ context.Context, id int64) (store.Identity, bool, error) {
	got, ok := l.byID[id]
	return got, ok, nil
}

func (l *IdentityLookup) LookupByExternalID(_ context.Context, externalID string) (store.Identity, bool, error) {
	got, ok := l.byExternal[externalID]
	return got, ok, nil
}
