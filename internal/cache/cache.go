// Package cache provides an LRU cache of parsed JSON bodies so each body
// is unmarshalled at most once per invocation, however many consumers
// (consolidation, query, emission checks) look at it.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Side selects which body of an entry a cache key refers to.
type Side uint8

const (
	SideRequest Side = iota
	SideResponse
)

// BodyCache is a thread-safe LRU cache keyed by (entry sequence, side).
type BodyCache struct {
	cache *lru.Cache[uint64, any]
}

// NewBodyCache creates a cache holding at most maxItems parsed bodies.
func NewBodyCache(maxItems int) (*BodyCache, error) {
	c, err := lru.New[uint64, any](maxItems)
	if err != nil {
		return nil, err
	}
	return &BodyCache{cache: c}, nil
}

// Get returns the cached parsed body for an entry side.
func (b *BodyCache) Get(seq int, side Side) (any, bool) {
	return b.cache.Get(key(seq, side))
}

// Put stores a parsed body.
func (b *BodyCache) Put(seq int, side Side, v any) {
	b.cache.Add(key(seq, side), v)
}

// Len returns the current number of cached bodies.
func (b *BodyCache) Len() int {
	return b.cache.Len()
}

func key(seq int, side Side) uint64 {
	return uint64(seq)<<1 | uint64(side&1)
}
