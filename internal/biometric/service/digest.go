package service

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// templateDigest is a short BLAKE3 fingerprint of a template, safe to log.
func templateDigest(template string) string {
	sum := blake3.Sum256([]byte(template))
	return hex.EncodeToString(sum[:8])
}
