// Package cache provides the best-effort key/value facade backing the
// announcement and featured-speaker snapshots. Entries may be evicted at
// any moment; nothing here is authoritative state.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Cache struct {
	lru *expirable.LRU[string, []byte]
}

// New returns a cache holding up to size entries, each expiring after ttl.
// A zero ttl keeps entries until evicted by capacity.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Set(key string, value []byte) {
	c.lru.Add(key, value)
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}
