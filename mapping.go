package tabular

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ComposeMappings returns the mapping equivalent to applying first to a
// column and then second to the resulting view: composed[i] =
// first[second[i]]. Entries of second that fall outside [0, len(first))
// compose to -1, so the missing rows of the intermediate view stay missing.
//
// Sentinel entries are part of the mapping contract and are never
// normalized away.
func ComposeMappings(first, second []int32) []int32 {
	composed := make([]int32, len(second))
	for i, m := range second {
		if m >= 0 && int(m) < len(first) {
			composed[i] = first[m]
		} else {
			composed[i] = -1
		}
	}
	return composed
}

// A MapCache remembers composed mappings keyed by the identity of the
// mapping array of the view being mapped, so that mapping many views that
// share one mapping array (such as the columns of a mapped table) with the
// same new mapping computes the composition at most once. The key does not
// include the new mapping: one cache serves one applied mapping.
//
// The cache is safe for concurrent use: concurrent lookups of the same key
// are deduplicated and observe the identical result slice.
type MapCache struct {
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[*int32][]int32
}

// NewMapCache returns an empty cache.
func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[*int32][]int32)}
}

// composed returns the composition cached under the identity of the given
// view mapping, computing and storing it through compute on the first
// lookup.
func (c *MapCache) composed(mapping []int32, compute func() []int32) []int32 {
	if len(mapping) == 0 {
		return compute()
	}
	key := &mapping[0]

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	v, _, _ := c.group.Do(fmt.Sprintf("%p", key), func() (any, error) {
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		composed := compute()
		c.mu.Lock()
		c.entries[key] = composed
		c.mu.Unlock()
		return composed, nil
	})
	return v.([]int32)
}

// Len returns the number of cached compositions.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
