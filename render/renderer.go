/*
DESCRIPTION
  renderer.go implements FieldRenderer, the on-demand field renderer
  with a (node_id, field_id, dag_version) cache and DAG-change
  invalidation (spec §4.5).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package render provides FieldRenderer (the on-demand, cached
// execute-to-node renderer) and ObservationCache (the second-level
// per-(node,field) VFR cache shared across consumers), spec §4.5/§4.6.
package render

import (
	"fmt"

	"github.com/tbcorc/orc/dag"
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/lru"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/vfr"
)

// Result is the outcome of a single Render call.
type Result struct {
	Representation vfr.VFR
	Valid          bool
	FromCache      bool
	Error          error
}

type cacheKey struct {
	node    ids.NodeID
	field   ids.FieldID
	version uint64
}

// FieldRenderer serves "give me field N at node X for display". It is
// single-threaded: callers must serialize access (the actor in package
// actor does this).
type FieldRenderer struct {
	dag       *dag.DAG
	version   uint64
	cache     *lru.Cache[cacheKey, vfr.VFR]
	cacheCap  int
	lastCtx   *observation.Context
}

// DefaultCacheCapacity is the default number of cached VFRs.
const DefaultCacheCapacity = 1000

// NewFieldRenderer constructs a FieldRenderer over d, rejecting a nil
// or invalid DAG with a structured error.
func NewFieldRenderer(d *dag.DAG) (*FieldRenderer, error) {
	if d == nil {
		return nil, fmt.Errorf("render: nil DAG")
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("render: invalid DAG: %w", err)
	}
	return &FieldRenderer{
		dag:      d,
		version:  1,
		cache:    lru.New[cacheKey, vfr.VFR](DefaultCacheCapacity),
		cacheCap: DefaultCacheCapacity,
	}, nil
}

// DAGVersion returns the current monotonically-increasing DAG version.
func (r *FieldRenderer) DAGVersion() uint64 { return r.version }

// CacheSize returns the number of entries currently cached.
func (r *FieldRenderer) CacheSize() int { return r.cache.Len() }

// UpdateDAG validates newDAG, and if valid, replaces the renderer's DAG,
// incrementing the DAG version and clearing the cache. The old DAG and
// cache are left in place on validation failure.
func (r *FieldRenderer) UpdateDAG(newDAG *dag.DAG) error {
	if newDAG == nil {
		return fmt.Errorf("render: nil DAG")
	}
	if err := newDAG.Validate(); err != nil {
		return fmt.Errorf("render: invalid DAG: %w", err)
	}
	r.dag = newDAG
	r.version++
	r.cache.Clear()
	return nil
}

// Render returns field id of node, executing the DAG up to node on a
// cache miss. The cache key is (node, field, dag version); a hit
// returns the cached VFR without re-executing.
func (r *FieldRenderer) Render(node ids.NodeID, field ids.FieldID) Result {
	key := cacheKey{node: node, field: field, version: r.version}
	if v, ok := r.cache.Get(key); ok {
		return Result{Representation: v, Valid: true, FromCache: true}
	}

	exec := dag.NewExecutor(r.dag)
	res, err := exec.ExecuteToNode(node)
	if err != nil {
		return Result{Error: fmt.Errorf("render: %w", err)}
	}
	r.lastCtx = res.Observations

	outs := res.Outputs[node]
	if len(outs) == 0 {
		return Result{Error: fmt.Errorf("render: node %q produced no outputs", node)}
	}
	v := outs[0]
	if !v.HasField(field) {
		return Result{Error: fmt.Errorf("render: node %q has no field %v", node, field)}
	}

	r.cache.Put(key, v)
	return Result{Representation: v, Valid: true, FromCache: false}
}

// Observations returns the ObservationContext produced by the most
// recent render, or nil if no render has occurred yet.
func (r *FieldRenderer) Observations() *observation.Context { return r.lastCtx }

// Node executes the DAG up to node and returns its full VFR
// representation, uncached. Unlike Render, it is not keyed to a
// single field: use it for structural queries (field range, per-field
// descriptors) rather than per-field sample access.
func (r *FieldRenderer) Node(node ids.NodeID) (vfr.VFR, error) {
	exec := dag.NewExecutor(r.dag)
	res, err := exec.ExecuteToNode(node)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	r.lastCtx = res.Observations

	outs := res.Outputs[node]
	if len(outs) == 0 {
		return nil, fmt.Errorf("render: node %q produced no outputs", node)
	}
	return outs[0], nil
}
