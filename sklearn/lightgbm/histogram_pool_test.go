package lightgbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistogramPool_SizingClampedToNumLeaves(t *testing.T) {
	bins := map[int]int{0: 4, 1: 4}
	pool := NewHistogramPool(4, -1, bins)
	assert.Equal(t, 4, pool.maxCacheSize)

	// A very small poolMB must clamp down to the minimum of 2, never 0/1.
	tiny := NewHistogramPool(31, 1e-6, bins)
	assert.Equal(t, 2, tiny.maxCacheSize)
}

func TestHistogramPool_GetReportsHitVsMiss(t *testing.T) {
	pool := NewHistogramPool(4, -1, map[int]int{0: 4})

	_, hit := pool.Get(0)
	assert.False(t, hit, "first Get for a fresh leaf must report a miss")

	_, hit = pool.Get(0)
	assert.True(t, hit, "second Get for the same leaf must report a hit")
}

func TestHistogramPool_MoveRebindsWithoutCopy(t *testing.T) {
	pool := NewHistogramPool(4, -1, map[int]int{0: 4})

	bank, _ := pool.Get(0)
	bank.FeatureEntries(0)[0].SumGrad = 42

	pool.Move(0, 2)

	moved, hit := pool.Get(2)
	assert.True(t, hit)
	assert.Same(t, bank, moved)
	assert.Equal(t, 42.0, moved.FeatureEntries(0)[0].SumGrad)

	_, hitOld := pool.Get(0)
	assert.False(t, hitOld, "leaf 0's binding should have moved away entirely")
}

func TestHistogramPool_ResetMapForgetsBindings(t *testing.T) {
	pool := NewHistogramPool(4, -1, map[int]int{0: 4})
	pool.Get(0)
	pool.Get(1)

	pool.ResetMap()

	_, hit := pool.Get(0)
	assert.False(t, hit)
}

func TestHistogramPool_EvictsLeastRecentlyUsed(t *testing.T) {
	// Two slots only, so a third distinct leaf forces an eviction.
	pool := NewHistogramPool(2, -1, map[int]int{0: 4})
	assert.Equal(t, 2, pool.maxCacheSize)

	pool.Get(0)
	pool.Get(1)
	// Touch leaf 0 again so leaf 1 becomes the LRU victim.
	pool.Get(0)

	pool.Get(2)

	// Probe leaf 0 first: a miss on leaf 1 would itself evict the LRU slot.
	_, hitLeaf0 := pool.Get(0)
	assert.True(t, hitLeaf0, "leaf 0 was touched most recently and must survive eviction")

	_, hitLeaf1 := pool.Get(1)
	assert.False(t, hitLeaf1, "leaf 1 should have been evicted as least-recently-used")
}

func TestHistogramBank_SplittableDefaultsTrue(t *testing.T) {
	bank := newHistogramBank(map[int]int{0: 4, 1: 4})
	assert.True(t, bank.IsSplittable(0))

	bank.SetSplittable(0, false)
	assert.False(t, bank.IsSplittable(0))
	assert.True(t, bank.IsSplittable(1))
}
