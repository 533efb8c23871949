package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriftRatio(t *testing.T) {
	h := StructureHash("board:acme jobs:12")

	assert.Equal(t, 0.0, DriftRatio("", h), "no baseline means no drift")
	assert.Equal(t, 0.0, DriftRatio(h, h))
	assert.Equal(t, 1.0, DriftRatio(h, ""), "losing the hash is full drift")
	assert.Equal(t, 1.0, DriftRatio(h, h[:10]), "length mismatch is full drift")

	other := StructureHash("completely different outline")
	ratio := DriftRatio(h, other)
	assert.Greater(t, ratio, DriftWarnThreshold, "independent hashes differ in most nibbles")
	assert.LessOrEqual(t, ratio, 1.0)
}

func TestStructureHashDeterministic(t *testing.T) {
	assert.Equal(t, StructureHash("a;b;c"), StructureHash("a;b;c"))
	assert.NotEqual(t, StructureHash("a;b;c"), StructureHash("a;b"))
	assert.Len(t, StructureHash("x"), 64)
}

func TestCookieMaxAge(t *testing.T) {
	ttl, tracked := CookieMaxAge("infojobs")
	assert.True(t, tracked)
	assert.Equal(t, 48.0, ttl.Hours())

	_, tracked = CookieMaxAge("greenhouse")
	assert.False(t, tracked)
}
