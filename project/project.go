/*
DESCRIPTION
  project.go defines the persisted project document format and
  Build, which resolves it through the stage registry into a runnable
  dag.DAG: node_id/stage_type_name/parameters per node, and
  from_node/from_output_index/to_node/to_input_index per edge
  (spec §4.11).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package project loads a persisted project document (JSON) and
// translates it into a dag.DAG by resolving each node's stage type
// through the registry and applying its parameters.
package project

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/tbcorc/orc/dag"
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
)

// Document is the on-disk project format: project metadata, an
// ordered list of nodes, and an ordered list of edges connecting them.
type Document struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoFormat int       `json:"video_format"`
	Nodes       []NodeDoc `json:"nodes"`
	Edges       []EdgeDoc `json:"edges"`
}

// NodeDoc is one persisted DAG node: a stage type to instantiate and
// the parameter values to configure it with. NodeID may be left empty,
// in which case Build assigns a fresh unique ID.
type NodeDoc struct {
	NodeID        string                 `json:"node_id"`
	StageTypeName string                 `json:"stage_type_name"`
	Parameters    map[string]interface{} `json:"parameters"`
}

// EdgeDoc is one persisted DAG edge: the to_node's to_input_index-th
// input is bound to the from_node's from_output_index-th output.
type EdgeDoc struct {
	FromNode        string `json:"from_node"`
	FromOutputIndex int    `json:"from_output_index"`
	ToNode          string `json:"to_node"`
	ToInputIndex    int    `json:"to_input_index"`
}

// Load decodes a project Document from r.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("project: decode: %w", err)
	}
	return &doc, nil
}

// buildErrors accumulates every error found while resolving a
// Document, mirroring dag.validationErrors/param.validationErrors so
// a caller sees every problem in one pass rather than just the first.
type buildErrors []error

func (e buildErrors) Error() string {
	s := fmt.Sprintf("project: %d build error(s):", len(e))
	for _, err := range e {
		s += "\n  " + err.Error()
	}
	return s
}

// Build resolves doc into a dag.DAG: each NodeDoc's stage type is
// instantiated via the registry, its parameters coerced against the
// stage's own descriptors and applied, and each EdgeDoc becomes a
// predecessor binding on the target node. Nodes whose stage kind is
// Sink or AnalysisSink are automatically designated as sink nodes.
// The returned DAG is not validated; callers should call Validate (or
// rely on render.NewFieldRenderer, which validates on construction).
func Build(doc *Document) (*dag.DAG, error) {
	if doc == nil {
		return nil, fmt.Errorf("project: nil document")
	}

	var errs buildErrors

	stages := make(map[ids.NodeID]stage.Stage, len(doc.Nodes))
	typeNames := make(map[ids.NodeID]string, len(doc.Nodes))
	rawParams := make(map[ids.NodeID]map[string]interface{}, len(doc.Nodes))
	order := make([]ids.NodeID, 0, len(doc.Nodes))
	seen := make(map[ids.NodeID]bool, len(doc.Nodes))

	for i, nd := range doc.Nodes {
		nodeID := ids.NodeID(nd.NodeID)
		if nodeID == "" {
			nodeID = ids.NodeID(uuid.NewString())
		}
		if seen[nodeID] {
			errs = append(errs, fmt.Errorf("node %d: duplicate node id %q", i, nodeID))
			continue
		}
		seen[nodeID] = true
		order = append(order, nodeID)
		rawParams[nodeID] = nd.Parameters

		st, err := registry.Create(nd.StageTypeName)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", nodeID, err))
			continue
		}
		stages[nodeID] = st
		typeNames[nodeID] = nd.StageTypeName
	}

	// Group edges by target node, sorted by ToInputIndex, so each
	// node's InputNodeIDs/InputIndices are built in input-slot order.
	edgesByTarget := make(map[ids.NodeID][]EdgeDoc, len(doc.Edges))
	for _, e := range doc.Edges {
		to := ids.NodeID(e.ToNode)
		edgesByTarget[to] = append(edgesByTarget[to], e)
	}
	for to := range edgesByTarget {
		es := edgesByTarget[to]
		sort.Slice(es, func(i, j int) bool { return es[i].ToInputIndex < es[j].ToInputIndex })
		edgesByTarget[to] = es
	}

	nodes := make([]dag.Node, 0, len(order))
	var sinkNodes []ids.NodeID

	for _, nodeID := range order {
		st, ok := stages[nodeID]
		if !ok {
			continue // already reported above
		}

		edges := edgesByTarget[nodeID]
		inputNodeIDs := make([]ids.NodeID, len(edges))
		inputIndices := make([]int, len(edges))
		sourceType := ""
		for i, e := range edges {
			from := ids.NodeID(e.FromNode)
			inputNodeIDs[i] = from
			inputIndices[i] = e.FromOutputIndex
			if i == 0 {
				sourceType = typeNames[from]
			}
		}

		descs := st.ParameterDescriptors(doc.VideoFormat, sourceType)
		params, err := coerceParameters(rawParams[nodeID], descs)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", nodeID, err))
			continue
		}
		if err := st.SetParameters(params); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", nodeID, err))
			continue
		}

		nodes = append(nodes, dag.Node{
			NodeID:       nodeID,
			Stage:        st,
			Parameters:   params,
			InputNodeIDs: inputNodeIDs,
			InputIndices: inputIndices,
		})

		switch st.TypeInfo().Kind {
		case stage.Sink, stage.AnalysisSink:
			sinkNodes = append(sinkNodes, nodeID)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return dag.New(nodes, sinkNodes), nil
}

// coerceParameters converts the loosely-typed JSON parameter values in
// raw into a param.Map, using descs to determine each named
// parameter's intended type (JSON does not distinguish int from
// float, and has no bool-vs-string ambiguity, so only numeric
// parameters need a type-directed coercion).
func coerceParameters(raw map[string]interface{}, descs []param.Descriptor) (param.Map, error) {
	known := make(map[string]param.Descriptor, len(descs))
	for _, d := range descs {
		known[d.Name] = d
	}

	m := make(param.Map, len(raw))
	var errs buildErrors
	for k, v := range raw {
		d, ok := known[k]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown parameter %q", k))
			continue
		}
		val, err := coerceValue(v, d.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("parameter %q: %w", k, err))
			continue
		}
		m[k] = val
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

func coerceValue(v interface{}, t param.Type) (param.Value, error) {
	switch t {
	case param.TypeInt:
		f, ok := v.(float64)
		if !ok {
			return param.Value{}, fmt.Errorf("expected a number, got %T", v)
		}
		return param.Int(int64(f)), nil
	case param.TypeFloat:
		f, ok := v.(float64)
		if !ok {
			return param.Value{}, fmt.Errorf("expected a number, got %T", v)
		}
		return param.Float(f), nil
	case param.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return param.Value{}, fmt.Errorf("expected a bool, got %T", v)
		}
		return param.Bool(b), nil
	case param.TypeString:
		s, ok := v.(string)
		if !ok {
			return param.Value{}, fmt.Errorf("expected a string, got %T", v)
		}
		return param.String(s), nil
	default:
		return param.Value{}, fmt.Errorf("unknown parameter type %v", t)
	}
}
