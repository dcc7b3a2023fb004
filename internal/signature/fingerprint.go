package signature

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// fingerprintLines is how many leading lines contribute to the shape.
const fingerprintLines = 10

// fingerprintLen is the hex-digest prefix length kept. The space is
// intentionally small: a fingerprint is a lossy clustering key, not an
// identity, and collisions between structurally different documents are
// expected.
const fingerprintLen = 8

// Fingerprint derives a short structural fingerprint from the blank/non-blank
// shape of the first lines of text. Same shape means same fingerprint
// regardless of content. Deterministic, including for empty input (a single
// blank entry).
func Fingerprint(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > fingerprintLines {
		lines = lines[:fingerprintLines]
	}
	shape := make([]byte, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			shape[i] = '1'
		} else {
			shape[i] = '0'
		}
	}
	sum := md5.Sum(shape)
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
