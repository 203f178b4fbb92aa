/*
DESCRIPTION
  fieldinvert.go implements the field-invert wrapper: flips
  is_first_field on parity hints only, sample data untouched (spec
  §4.3).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vfr

import "github.com/tbcorc/orc/ids"

// FieldInvertVFR flips the IsFirstField bit of every parity hint its
// source exposes, leaving all sample data and every other accessor
// untouched.
type FieldInvertVFR struct {
	Wrapper
}

// NewFieldInvertVFR constructs a FieldInvertVFR.
func NewFieldInvertVFR(id ids.ArtifactID, source VFR) *FieldInvertVFR {
	return &FieldInvertVFR{Wrapper{Source: source, SelfID: id}}
}

func (f *FieldInvertVFR) GetFieldParityHint(id ids.FieldID) (ParityHint, bool) {
	h, ok := f.Source.GetFieldParityHint(id)
	if !ok {
		return ParityHint{}, false
	}
	h.IsFirstField = !h.IsFirstField
	return h, true
}
