/*
DESCRIPTION
  dag.go defines DAGNode and DAG, the directed-acyclic-graph model of a
  processing pipeline: nodes bound to stage instances, edges expressed
  as input-node/input-index lists, and a validate() predicate (spec
  §3, §4.4).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dag provides the DAG model (nodes, edges, validation) and
// the Executor that evaluates a DAG up to a target node with
// per-run artifact caching (spec §4.4).
package dag

import (
	"fmt"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/stage"
)

// Node binds a stage instance to a position in the graph: its inputs
// are the named predecessor nodes, read from the given output index
// of each (parallel to InputNodeIDs).
type Node struct {
	NodeID       ids.NodeID
	Stage        stage.Stage
	Parameters   param.Map
	InputNodeIDs []ids.NodeID
	InputIndices []int
}

// DAG is an ordered sequence of nodes plus a designated set of
// sink/output nodes.
type DAG struct {
	Nodes      []Node
	SinkNodes  []ids.NodeID
	byID       map[ids.NodeID]int
}

// New constructs a DAG from nodes and sinkNodes. It does not validate;
// call Validate explicitly (the field renderer does this for callers
// automatically; the executor does not).
func New(nodes []Node, sinkNodes []ids.NodeID) *DAG {
	d := &DAG{Nodes: nodes, SinkNodes: sinkNodes}
	d.index()
	return d
}

func (d *DAG) index() {
	d.byID = make(map[ids.NodeID]int, len(d.Nodes))
	for i, n := range d.Nodes {
		d.byID[n.NodeID] = i
	}
}

// Node returns the node with the given ID, if present.
func (d *DAG) Node(id ids.NodeID) (Node, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Node{}, false
	}
	return d.Nodes[i], true
}

// validationErrors accumulates multiple DAG validation failures so a
// caller sees every problem in one report instead of just the first.
type validationErrors []error

func (e validationErrors) Error() string {
	s := fmt.Sprintf("dag: %d validation error(s):", len(e))
	for _, err := range e {
		s += "\n  " + err.Error()
	}
	return s
}

// Validate checks the DAG is acyclic, every non-source node has all
// declared inputs bound to existing predecessor nodes, and every sink
// node actually exists. All failures found are returned together.
func (d *DAG) Validate() error {
	if d == nil {
		return fmt.Errorf("dag: nil DAG")
	}
	var errs validationErrors

	seen := make(map[ids.NodeID]bool)
	for _, n := range d.Nodes {
		if n.NodeID == "" {
			errs = append(errs, fmt.Errorf("node has empty NodeID"))
			continue
		}
		if seen[n.NodeID] {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.NodeID))
		}
		seen[n.NodeID] = true
		if n.Stage == nil {
			errs = append(errs, fmt.Errorf("node %q has no stage", n.NodeID))
			continue
		}
		if len(n.InputNodeIDs) != len(n.InputIndices) {
			errs = append(errs, fmt.Errorf("node %q: InputNodeIDs/InputIndices length mismatch", n.NodeID))
		}
		info := n.Stage.TypeInfo()
		if info.Kind != stage.Source && len(n.InputNodeIDs) < info.MinInputs {
			errs = append(errs, fmt.Errorf("node %q: requires at least %d inputs, has %d", n.NodeID, info.MinInputs, len(n.InputNodeIDs)))
		}
		if info.MaxInputs >= 0 && len(n.InputNodeIDs) > info.MaxInputs {
			errs = append(errs, fmt.Errorf("node %q: allows at most %d inputs, has %d", n.NodeID, info.MaxInputs, len(n.InputNodeIDs)))
		}
		for _, pred := range n.InputNodeIDs {
			if _, ok := d.byID[pred]; !ok {
				errs = append(errs, fmt.Errorf("node %q: input node %q does not exist", n.NodeID, pred))
			}
		}
	}

	for _, s := range d.SinkNodes {
		if _, ok := d.byID[s]; !ok {
			errs = append(errs, fmt.Errorf("sink node %q does not exist", s))
		}
	}

	if err := d.checkAcyclic(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (d *DAG) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ids.NodeID]int, len(d.Nodes))
	var visit func(id ids.NodeID) error
	visit = func(id ids.NodeID) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("cycle detected at node %q", id)
		case black:
			return nil
		}
		color[id] = gray
		n, ok := d.Node(id)
		if ok {
			for _, pred := range n.InputNodeIDs {
				if err := visit(pred); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, n := range d.Nodes {
		if err := visit(n.NodeID); err != nil {
			return err
		}
	}
	return nil
}

// ReachableFrom returns the set of node IDs reachable backward from
// target (target's transitive input closure, including target itself).
func (d *DAG) ReachableFrom(target ids.NodeID) map[ids.NodeID]bool {
	reached := make(map[ids.NodeID]bool)
	var visit func(id ids.NodeID)
	visit = func(id ids.NodeID) {
		if reached[id] {
			return
		}
		reached[id] = true
		n, ok := d.Node(id)
		if !ok {
			return
		}
		for _, pred := range n.InputNodeIDs {
			visit(pred)
		}
	}
	visit(target)
	return reached
}
