/*
DESCRIPTION
  overwrite.go implements the overwrite wrapper: substitutes a constant
  sample for a rectangular region of the visible area, all other
  samples pass through (spec §4.3).

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

import (
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/sample"
)

// OverwriteRect is a rectangular region, in samples/lines, to be
// substituted with a constant value.
type OverwriteRect struct {
	FirstLine, LastLine   int // inclusive
	FirstSample, LastSample int // inclusive
	Value                 uint16
}

// OverwriteVFR substitutes Rect.Value over Rect's bounds; all other
// samples pass through unchanged.
type OverwriteVFR struct {
	Wrapper
	Rect OverwriteRect
}

// NewOverwriteVFR constructs an OverwriteVFR.
func NewOverwriteVFR(id ids.ArtifactID, source VFR, rect OverwriteRect) *OverwriteVFR {
	return &OverwriteVFR{Wrapper: Wrapper{Source: source, SelfID: id}, Rect: rect}
}

func (o *OverwriteVFR) applyLine(line int, buf []uint16) []uint16 {
	if line < o.Rect.FirstLine || line > o.Rect.LastLine {
		return buf
	}
	out := make([]uint16, len(buf))
	copy(out, buf)
	start := o.Rect.FirstSample
	if start < 0 {
		start = 0
	}
	end := o.Rect.LastSample
	if end >= len(out) {
		end = len(out) - 1
	}
	for i := start; i <= end; i++ {
		out[i] = o.Rect.Value
	}
	return out
}

func (o *OverwriteVFR) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	buf, ok := o.Source.GetLine(id, line)
	if !ok {
		return nil, false
	}
	return o.applyLine(line, buf), true
}

func (o *OverwriteVFR) GetField(id ids.FieldID) (sample.Field, bool) {
	f, ok := o.Source.GetField(id)
	if !ok {
		return sample.Field{}, false
	}
	out := make([]uint16, f.Width()*f.Height())
	for line := 0; line < f.Height(); line++ {
		copy(out[line*f.Width():(line+1)*f.Width()], o.applyLine(line, f.Line(line)))
	}
	return sample.NewField(f.Width(), f.Height(), out), true
}
