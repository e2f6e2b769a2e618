package classify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

func TestCachePutGet(t *testing.T) {
	cache := NewCache(4)
	result := domain.ClassificationResult{Department: domain.DepartmentIT, Confidence: 0.9}

	cache.Put("a", result)

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, result, got)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewCache(3)
	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("key-%d", i), domain.ClassificationResult{Confidence: float64(i)})
	}

	// Touch key-0 so key-1 becomes the eviction candidate.
	_, ok := cache.Get("key-0")
	require.True(t, ok)

	cache.Put("key-3", domain.ClassificationResult{Confidence: 3})

	_, ok = cache.Get("key-1")
	assert.False(t, ok)
	_, ok = cache.Get("key-0")
	assert.True(t, ok)
	assert.Equal(t, 3, cache.Size())
}

func TestCacheUpdateExistingKey(t *testing.T) {
	cache := NewCache(2)
	cache.Put("a", domain.ClassificationResult{Confidence: 0.1})
	cache.Put("a", domain.ClassificationResult{Confidence: 0.2})

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 0.2, got.Confidence)
	assert.Equal(t, 1, cache.Size())
}

func TestFingerprintNormalizesContent(t *testing.T) {
	assert.Equal(t,
		Fingerprint("VPN Broken", "Cannot connect"),
		Fingerprint("  vpn broken  ", "cannot connect"))
	assert.NotEqual(t,
		Fingerprint("VPN Broken", "Cannot connect"),
		Fingerprint("VPN Broken", "Different body"))
}
