// Package contenthash computes the stable content address for validated
// upload bytes. The digest is taken over the exact original byte sequence,
// never over re-encoded pixels, so byte-identical uploads deduplicate and
// nothing else does.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
