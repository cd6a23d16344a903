// Package checksum computes the content digests used as ETags, search index
// freshness markers and save-notification de-duplication keys.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum for note text.
func SumString(text string) string {
	return Sum([]byte(text))
}
