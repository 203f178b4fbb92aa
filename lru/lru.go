/*
DESCRIPTION
  lru.go provides a generic, bounded, eviction-ordered map: a minimal
  LRU cache built on container/list + a map, used by the field
  renderer and observation cache (spec §4.6).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lru provides a small generic bounded eviction-ordered map.
// No example repo in the retrieval pack imports a third-party LRU
// library; container/list plus a map is the idiomatic minimal
// implementation, so this package is intentionally dependency-free.
package lru

import "container/list"

// Cache is a fixed-capacity LRU map from K to V. It is not safe for
// concurrent use without external synchronization — callers that need
// that (the render coordinator's worker thread) serialize access
// themselves (spec §5).
type Cache[K comparable, V any] struct {
	capacity int
	ll       *list.List
	items    map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New constructs a Cache bounded to capacity entries. capacity <= 0
// means unbounded.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get returns the value for key, marking it most-recently-used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put inserts or updates key's value, marking it most-recently-used,
// evicting the least-recently-used entry if capacity is exceeded.
func (c *Cache[K, V]) Put(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = el
	if c.capacity > 0 && c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *Cache[K, V]) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}

// Delete removes key from the cache, if present.
func (c *Cache[K, V]) Delete(key K) {
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.ll.Init()
	c.items = make(map[K]*list.Element)
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int { return c.ll.Len() }
