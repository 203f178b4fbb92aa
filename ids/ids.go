/*
DESCRIPTION
  ids.go provides the value identifier types shared across the pipeline
  substrate: FieldID, NodeID and ArtifactID.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ids provides the small value types used to identify fields,
// DAG nodes and cache/provenance artifacts throughout the pipeline.
package ids

import "fmt"

// FieldID identifies a single field within a VideoFieldRepresentation.
// Ordering is numeric; FieldID is 0-indexed per field within a VFR.
type FieldID uint64

// FieldIDInvalid is the sentinel used to mark an absent field, e.g. a
// padding slot introduced by a field-map remap.
const FieldIDInvalid FieldID = ^FieldID(0)

// Valid reports whether id is not the invalid sentinel.
func (id FieldID) Valid() bool { return id != FieldIDInvalid }

func (id FieldID) String() string {
	if id == FieldIDInvalid {
		return "INVALID"
	}
	return fmt.Sprintf("%d", uint64(id))
}

// FieldIDRange is a half-open range [Start, End) of FieldIDs.
type FieldIDRange struct {
	Start, End FieldID
}

// Size returns End - Start, i.e. the number of fields in the range.
func (r FieldIDRange) Size() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}

// Contains reports whether id falls within [Start, End).
func (r FieldIDRange) Contains(id FieldID) bool {
	return id >= r.Start && id < r.End
}

func (r FieldIDRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// NodeID is an opaque string identifier, unique within a single DAG.
// Conventional names ("SOURCE_0", "transform_1") are not load-bearing.
type NodeID string

// ArtifactID identifies a produced value for cache-provenance purposes
// only; it carries no semantics beyond equality.
type ArtifactID string
