package scraper

import (
	"crypto/sha256"
	"encoding/hex"
)

// Structural drift detection: a run hashes a canonicalised fragment of what
// it ingested; comparing hashes nibble-by-nibble against the previous run
// approximates a Hamming distance. Ratio above the threshold means the site
// layout probably changed and the adapter's selectors deserve a look.

// DriftWarnThreshold is the nibble-mismatch ratio above which a warning is
// logged. The run still completes.
const DriftWarnThreshold = 0.30

// StructureHash hashes a canonical fragment to lowercase hex.
func StructureHash(fragment string) string {
	sum := sha256.Sum256([]byte(fragment))
	return hex.EncodeToString(sum[:])
}

// DriftRatio compares two hex hashes nibble-by-nibble and returns the
// mismatch ratio in [0,1]. Unequal lengths or an empty side count as full
// drift when one side exists, and zero when there is no baseline.
func DriftRatio(previous, current string) float64 {
	if previous == "" {
		return 0
	}
	if current == "" || len(previous) != len(current) {
		return 1
	}
	mismatched := 0
	for i := 0; i < len(previous); i++ {
		if previous[i] != current[i] {
			mismatched++
		}
	}
	return float64(mismatched) / float64(len(previous))
}
