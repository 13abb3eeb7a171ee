// Package fingerprint computes stable content hashes used for duplicate
// detection. The hashes are equality tokens, not security material.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns the hex SHA-256 of the trimmed, lower-cased text, so drafts
// differing only in case or surrounding whitespace collide.
func Hash(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
