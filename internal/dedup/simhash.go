package dedup

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// SimHash computes a 64-bit SimHash fingerprint over the whitespace-split
// tokens of the normalized text (spec.md §4.3 "SimHash" section). Each
// token is hashed with FNV-1a (64-bit, stable, no external dependency
// exists in the example corpus for this), and each hash bit votes +1/-1
// into the accumulator; the final fingerprint bit is set where the
// accumulator is positive.
func SimHash(text string) uint64 {
	tokens := strings.Fields(Normalize(text))
	if len(tokens) == 0 {
		return 0
	}

	var weights [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		tokenHash := h.Sum64()
		for bit := 0; bit < 64; bit++ {
			if tokenHash&(1<<uint(bit)) != 0 {
				weights[bit]++
			} else {
				weights[bit]--
			}
		}
	}

	var fingerprint uint64
	for bit := 0; bit < 64; bit++ {
		if weights[bit] > 0 {
			fingerprint |= 1 << uint(bit)
		}
	}
	return fingerprint
}

// HammingDistance returns popcount(a XOR b), the number of differing bits
// between two SimHash fingerprints.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
