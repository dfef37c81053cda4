package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Local is the process-local tier-1 cache: a small expirable LRU shared by
// all request goroutines. It is the only tier consulted without a network
// hop, so its TTL bounds the worst-case staleness window when an explicit
// invalidation is missed. Values are stored as-is; an empty slice is a
// legitimate cached value, distinct from a miss.
type Local[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewLocal creates a tier-1 cache with the given capacity and TTL.
func NewLocal[V any](capacity int, ttl time.Duration) *Local[V] {
	return &Local[V]{
		lru: expirable.NewLRU[string, V](capacity, nil, ttl),
	}
}

// Get returns the cached value and whether it was present and unexpired.
func (c *Local[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores a value. Population races between request goroutines resolve
// last-write-wins, which is fine for advisory-fresh permission data.
func (c *Local[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Delete evicts a single key.
func (c *Local[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Purge evicts everything, used for broad invalidations.
func (c *Local[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Local[V]) Len() int {
	return c.lru.Len()
}
