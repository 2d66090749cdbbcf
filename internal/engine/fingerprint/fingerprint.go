// Package fingerprint computes the stable content digest used to deduplicate
// job candidates across discovery runs.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Hash maps a (title, company) pair to a 32-character lowercase hex digest.
// Both inputs are normalized first so cosmetic variants collide. The digest
// only needs to be practically unique, not cryptographic.
func Hash(title, company string) string {
	sum := md5.Sum([]byte(normalize(title) + "|" + normalize(company)))
	return hex.EncodeToString(sum[:])
}

// normalize trims, lowercases and collapses whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
