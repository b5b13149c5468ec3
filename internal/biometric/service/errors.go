package service

import (
	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/db"
)

var (
	// ErrNotFound is returned when an operation targets a missing row.
	ErrNotFound = store.ErrNotFound

	// ErrConflict is returned when an enrollment kept losing a storage race
	// after all retry attempts.
	ErrConflict = db.ErrConflict
)
