package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashHex returns the hex-encoded sha256 digest of parts joined by ":".
// The registry uses it to derive a stable, collision-resistant graph
// database filename from a project's absolute root path.
func HashHex(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}
