package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes a stable identity for a finding so the same issue can
// be tracked across runs.
func Fingerprint(ruleID, branch string, line int, context string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%s", ruleID, branch, line, context)
	return hex.EncodeToString(h.Sum(nil))
}

// SHA256Hex hashes arbitrary text, e.g. submitted contract source.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
