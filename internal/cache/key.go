package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// maxKeyLen is the longest normalized query stored verbatim as a key.
// Anything longer is hashed to bound key memory.
const maxKeyLen = 200

// Normalize canonicalizes raw query text: lowercased, whitespace runs
// collapsed to single spaces, trimmed, and trailing punctuation from
// {! ? . , : ;} stripped. Idempotent; may return "".
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	s = strings.Join(strings.Fields(s), " ")
	// The space keeps the strip at a fixpoint: removing a trailing mark can
	// expose a space, which would otherwise survive and break idempotence.
	return strings.TrimRight(s, "!?.,:; ")
}

// Key returns the cache key for a raw query: the normalized text, or a
// SHA-256 hex digest of it when the normalized form exceeds 200 characters.
func Key(raw string) string {
	n := Normalize(raw)
	if utf8.RuneCountInString(n) <= maxKeyLen {
		return n
	}
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:])
}
