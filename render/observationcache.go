/*
DESCRIPTION
  observationcache.go implements ObservationCache, the second-level
  cache over a FieldRenderer keyed by (node_id, field_id) plus a
  node_id -> field_count cache, bounded with LRU eviction (spec §4.6).

  Despite the name, this caches rendered VFRs, not observation.Context
  entries; the ObservationContext it exposes is simply the renderer's
  own, forwarded for convenience.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package render

import (
	"fmt"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/lru"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/vfr"
)

// Default bounds for the observation cache (spec §4.6).
const (
	DefaultFieldCacheCapacity = 1000
	DefaultCountCacheCapacity = 100
)

type fieldKey struct {
	node  ids.NodeID
	field ids.FieldID
}

// ObservationCache sits on top of a FieldRenderer, caching rendered
// VFRs per (node, field) and field counts per node.
type ObservationCache struct {
	renderer *FieldRenderer
	fields   *lru.Cache[fieldKey, vfr.VFR]
	counts   *lru.Cache[ids.NodeID, int]
}

// NewObservationCache constructs an ObservationCache delegating misses
// to renderer.
func NewObservationCache(renderer *FieldRenderer) *ObservationCache {
	return &ObservationCache{
		renderer: renderer,
		fields:   lru.New[fieldKey, vfr.VFR](DefaultFieldCacheCapacity),
		counts:   lru.New[ids.NodeID, int](DefaultCountCacheCapacity),
	}
}

// GetField returns the VFR exposing field at node, via cache or by
// delegating to the underlying renderer on a miss; a successful
// render is cached.
func (c *ObservationCache) GetField(node ids.NodeID, field ids.FieldID) (vfr.VFR, error) {
	key := fieldKey{node: node, field: field}
	if v, ok := c.fields.Get(key); ok {
		return v, nil
	}
	res := c.renderer.Render(node, field)
	if res.Error != nil {
		return nil, res.Error
	}
	c.fields.Put(key, res.Representation)
	return res.Representation, nil
}

// PopulateNode warms the cache for node by rendering fields
// 0..min(field_count, max).
func (c *ObservationCache) PopulateNode(node ids.NodeID, max int) error {
	count, err := c.GetFieldCount(node)
	if err != nil {
		return err
	}
	if max < count {
		count = max
	}
	for i := 0; i < count; i++ {
		if _, err := c.GetField(node, ids.FieldID(i)); err != nil {
			return err
		}
	}
	return nil
}

// GetFieldCount returns the cached field count for node or, on miss,
// renders field 0 to learn the VFR's FieldCount (the field itself is
// retained in the field cache rather than discarded).
func (c *ObservationCache) GetFieldCount(node ids.NodeID) (int, error) {
	if n, ok := c.counts.Get(node); ok {
		return n, nil
	}
	v, err := c.GetField(node, 0)
	if err != nil {
		return 0, fmt.Errorf("render: get field count for %q: %w", node, err)
	}
	n := v.FieldCount()
	c.counts.Put(node, n)
	return n, nil
}

// Clear invalidates the entire cache. The wrapped FieldRenderer's own
// field cache is not touched; it is invalidated only by
// FieldRenderer.UpdateDAG.
func (c *ObservationCache) Clear() {
	c.fields.Clear()
	c.counts.Clear()
}

// ClearNode invalidates cached entries for node. The underlying LRU
// does not support predicate removal, so this clears the whole cache;
// correctness requires invariance under over-clearing, not minimality
// (spec §4.6).
func (c *ObservationCache) ClearNode(node ids.NodeID) {
	c.Clear()
}

// Observations returns the ObservationContext produced by the most
// recent render through the underlying FieldRenderer, so analysis-sink
// consumers can read side-channel data populated during rendering.
func (c *ObservationCache) Observations() *observation.Context {
	return c.renderer.Observations()
}
