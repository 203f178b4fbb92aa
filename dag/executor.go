/*
DESCRIPTION
  executor.go implements Executor, the topological DAG evaluator: given
  a DAG and a target node, it executes exactly the nodes reachable
  backward from the target, in a valid topological order, each at most
  once per run (spec §4.4).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dag

import (
	"fmt"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// Executor evaluates a DAG up to a target node, caching each visited
// node's outputs for the duration of a single run.
type Executor struct {
	dag *DAG
}

// NewExecutor constructs an Executor over d.
func NewExecutor(d *DAG) *Executor { return &Executor{dag: d} }

// Result is the outcome of one ExecuteToNode call.
type Result struct {
	// Outputs maps each visited node to the VFRs it produced.
	Outputs map[ids.NodeID][]vfr.VFR

	// Observations accumulates every observation written by any
	// stage's Execute during this run.
	Observations *observation.Context
}

// ExecuteToNode computes a reverse-topological walk from target, then
// executes each visited node in forward topological order, assembling
// each node's input vector from its predecessors' cached outputs.
// Each node executes at most once. If a node's stage returns an empty
// output vector, downstream transforms see it as absent, propagating
// emptiness (the mechanism by which an unconfigured source degrades to
// "zero fields available"). Any error from a stage's Execute aborts
// the run and is returned unchanged; partial outputs are discarded.
func (e *Executor) ExecuteToNode(target ids.NodeID) (Result, error) {
	if e.dag == nil {
		return Result{}, fmt.Errorf("dag: executor has no DAG")
	}
	if _, ok := e.dag.Node(target); !ok {
		return Result{}, fmt.Errorf("dag: target node %q does not exist", target)
	}

	order, err := e.topoOrder(target)
	if err != nil {
		return Result{}, err
	}

	outputs := make(map[ids.NodeID][]vfr.VFR, len(order))
	ctx := observation.NewContext()

	for _, id := range order {
		n, _ := e.dag.Node(id)
		inputs := make([]vfr.VFR, 0, len(n.InputNodeIDs))
		for i, pred := range n.InputNodeIDs {
			predOutputs := outputs[pred]
			idx := n.InputIndices[i]
			if idx < 0 || idx >= len(predOutputs) {
				// Predecessor produced fewer outputs than this edge
				// selects (e.g. an unconfigured source) — propagate
				// emptiness rather than erroring.
				continue
			}
			inputs = append(inputs, predOutputs[idx])
		}

		info := n.Stage.TypeInfo()
		out, err := n.Stage.Execute(inputs, n.Parameters, ctx)
		if err != nil {
			return Result{}, fmt.Errorf("dag: node %q: execute: %w", id, err)
		}
		if info.Kind == stage.Transform && len(out) < info.MinOutputs {
			return Result{}, fmt.Errorf("dag: node %q: transform returned %d outputs, want at least %d", id, len(out), info.MinOutputs)
		}
		outputs[id] = out
	}

	return Result{Outputs: outputs, Observations: ctx}, nil
}

// topoOrder returns a valid forward-topological ordering of the nodes
// reachable backward from target.
func (e *Executor) topoOrder(target ids.NodeID) ([]ids.NodeID, error) {
	reached := e.dag.ReachableFrom(target)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ids.NodeID]int, len(reached))
	var order []ids.NodeID
	var visit func(id ids.NodeID) error
	visit = func(id ids.NodeID) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("dag: cycle detected at node %q", id)
		case black:
			return nil
		}
		color[id] = gray
		n, ok := e.dag.Node(id)
		if ok {
			for _, pred := range n.InputNodeIDs {
				if err := visit(pred); err != nil {
					return err
				}
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}
	if err := visit(target); err != nil {
		return nil, err
	}
	return order, nil
}
