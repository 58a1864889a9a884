// Package hashing implements the walker's Hasher (spec §4.1): a
// deterministic, fixed-width digest over raw playlist bytes used purely
// for change detection, not as a security primitive.
package hashing

import (
	"encoding/hex"
	"github.com/cespare/xxhash/v2"
)

// Hash returns a stable, byte-identical-across-replays hex digest of raw.
// Collision resistance is not required (spec §4.1); xxhash is chosen for
// speed on the (often large) playlist bodies the walker refetches on
// every live-playlist tick.
func Hash(raw []byte) string {
	sum := xxhash.Sum64(raw)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (8 * (7 - i)))
	}
	return hex.EncodeToString(buf)
}
