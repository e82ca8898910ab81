// Package fingerprint computes the deduplication key for structured log rows.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Separator joins the canonical fields before hashing.
const Separator = "|"

// Size is the length of a hex-encoded fingerprint.
const Size = sha256.Size * 2

// Fields is the canonical ordered tuple a fingerprint is computed over.
// Absent values are empty strings so that absence still hashes deterministically.
type Fields struct {
	EventDt  string
	Source   string
	Filename string
	Bytes    string
	UserName string
}

// Compute returns the lower-case hex SHA-256 of the canonical tuple.
func Compute(eventDt, source, filename, bytes, userName string) string {
	canonical := strings.Join([]string{eventDt, source, filename, bytes, userName}, Separator)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Of is Compute over a Fields value.
func Of(f Fields) string {
	return Compute(f.EventDt, f.Source, f.Filename, f.Bytes, f.UserName)
}

// Valid reports whether s looks like a fingerprint produced by Compute.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && strings.ToLower(s) == s
}
