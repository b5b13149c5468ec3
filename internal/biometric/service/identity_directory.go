package service

import (
	"context"
	"strings"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

// IdentityDirectory turns an access-log identity reference into an internal
// key. Unknown references resolve to nil rather than an error.
type IdentityDirectory struct {
	lookup store.IdentityLookup
}

func NewIdentityDirectory(lookup store.IdentityLookup) *IdentityDirectory {
	return &IdentityDirectory{lookup: lookup}
}

func (d *IdentityDirectory) Resolve(ctx context.Context, ref types.IdentityRef) (*int64, error) {
	var (
		id  store.Identity
		ok  bool
		err error
	)
	switch {
	case ref.InternalID > 0:
		id, ok, err = d.lookup.LookupByID(ctx, ref.InternalID)
	case strings.TrimSpace(ref.ExternalID) != "":
		id, ok, err = d.lookup.LookupByExternalID(ctx, strings.TrimSpace(ref.ExternalID))
	default:
		return nil, nil
	}
	if err != nil || !ok {
		return nil, err
	}
	return &id.ID, nil
}
