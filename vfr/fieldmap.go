/*
DESCRIPTION
  fieldmap.go implements the field-map/range-remap wrapper: an
  output-index -> source-FieldID vector, with the INVALID sentinel
  producing a padding field (spec §4.3).

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

// FieldMap is the output-index -> source-FieldID mapping driving a
// FieldMapVFR. An entry of ids.FieldIDInvalid produces a padding
// field at that output index.
type FieldMap []ids.FieldID

// FieldMapVFR remaps a source VFR's fields according to Map. Output
// field N corresponds to source field Map[N], or a padding field if
// Map[N] is ids.FieldIDInvalid.
type FieldMapVFR struct {
	Wrapper
	Map FieldMap
}

// NewFieldMapVFR constructs a FieldMapVFR. id should be unique to this
// stage invocation for cache/provenance purposes.
func NewFieldMapVFR(id ids.ArtifactID, source VFR, m FieldMap) *FieldMapVFR {
	return &FieldMapVFR{Wrapper: Wrapper{Source: source, SelfID: id}, Map: m}
}

func (f *FieldMapVFR) outIndex(id ids.FieldID) int { return int(id) }

func (f *FieldMapVFR) srcID(id ids.FieldID) (ids.FieldID, bool) {
	i := f.outIndex(id)
	if i < 0 || i >= len(f.Map) {
		return 0, false
	}
	return f.Map[i], true
}

func (f *FieldMapVFR) isPadding(id ids.FieldID) bool {
	src, ok := f.srcID(id)
	return ok && !src.Valid()
}

func (f *FieldMapVFR) FieldRange() ids.FieldIDRange {
	return ids.FieldIDRange{Start: 0, End: ids.FieldID(len(f.Map))}
}

func (f *FieldMapVFR) FieldCount() int { return len(f.Map) }

func (f *FieldMapVFR) HasField(id ids.FieldID) bool {
	_, ok := f.srcID(id)
	return ok
}

func (f *FieldMapVFR) blankingLevel() uint16 {
	return f.Source.Parameters().Blanking16bIRE
}

func (f *FieldMapVFR) GetDescriptor(id ids.FieldID) (FieldDescriptor, bool) {
	src, ok := f.srcID(id)
	if !ok {
		return FieldDescriptor{}, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		return FieldDescriptor{
			FieldID:     id,
			Width:       p.FieldWidth,
			Height:      p.FieldHeight,
			Format:      p.System,
			Parity:      ParityUnknown,
			FrameNumber: -1,
		}, true
	}
	d, ok := f.Source.GetDescriptor(src)
	if !ok {
		return FieldDescriptor{}, false
	}
	d.FieldID = id
	return d, true
}

func (f *FieldMapVFR) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	src, ok := f.srcID(id)
	if !ok {
		return nil, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		if line < 0 || line >= p.FieldHeight {
			return nil, false
		}
		return sample.BlankLine(p.FieldWidth, f.blankingLevel()), true
	}
	return f.Source.GetLine(src, line)
}

func (f *FieldMapVFR) GetField(id ids.FieldID) (sample.Field, bool) {
	src, ok := f.srcID(id)
	if !ok {
		return sample.Field{}, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		return sample.Blank(p.FieldWidth, p.FieldHeight, f.blankingLevel()), true
	}
	return f.Source.GetField(src)
}

func (f *FieldMapVFR) GetFieldLuma(id ids.FieldID) (sample.Field, bool) {
	src, ok := f.srcID(id)
	if !ok || !f.Source.HasSeparateChannels() {
		return sample.Field{}, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		return sample.Blank(p.FieldWidth, p.FieldHeight, f.blankingLevel()), true
	}
	return f.Source.GetFieldLuma(src)
}

func (f *FieldMapVFR) GetFieldChroma(id ids.FieldID) (sample.Field, bool) {
	src, ok := f.srcID(id)
	if !ok || !f.Source.HasSeparateChannels() {
		return sample.Field{}, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		return sample.Blank(p.FieldWidth, p.FieldHeight, f.blankingLevel()), true
	}
	return f.Source.GetFieldChroma(src)
}

func (f *FieldMapVFR) GetLineLuma(id ids.FieldID, line int) ([]uint16, bool) {
	src, ok := f.srcID(id)
	if !ok || !f.Source.HasSeparateChannels() {
		return nil, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		if line < 0 || line >= p.FieldHeight {
			return nil, false
		}
		return sample.BlankLine(p.FieldWidth, f.blankingLevel()), true
	}
	return f.Source.GetLineLuma(src, line)
}

func (f *FieldMapVFR) GetLineChroma(id ids.FieldID, line int) ([]uint16, bool) {
	src, ok := f.srcID(id)
	if !ok || !f.Source.HasSeparateChannels() {
		return nil, false
	}
	if !src.Valid() {
		p := f.Source.Parameters()
		if line < 0 || line >= p.FieldHeight {
			return nil, false
		}
		return sample.BlankLine(p.FieldWidth, f.blankingLevel()), true
	}
	return f.Source.GetLineChroma(src, line)
}

func (f *FieldMapVFR) GetDropoutHints(id ids.FieldID) []DropoutRegion {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return nil
	}
	return f.Source.GetDropoutHints(src)
}

func (f *FieldMapVFR) GetFieldParityHint(id ids.FieldID) (ParityHint, bool) {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return ParityHint{}, false
	}
	return f.Source.GetFieldParityHint(src)
}

func (f *FieldMapVFR) GetFieldPhaseHint(id ids.FieldID) (PhaseHint, bool) {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return PhaseHint{}, false
	}
	return f.Source.GetFieldPhaseHint(src)
}

func (f *FieldMapVFR) GetAudioSampleCount(id ids.FieldID) int {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return 0
	}
	return f.Source.GetAudioSampleCount(src)
}

func (f *FieldMapVFR) GetAudioSamples(id ids.FieldID) (AudioSamples, bool) {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return AudioSamples{}, false
	}
	return f.Source.GetAudioSamples(src)
}

func (f *FieldMapVFR) GetEFMSampleCount(id ids.FieldID) int {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return 0
	}
	return f.Source.GetEFMSampleCount(src)
}

func (f *FieldMapVFR) GetEFMSamples(id ids.FieldID) (EFMSamples, bool) {
	src, ok := f.srcID(id)
	if !ok || !src.Valid() {
		return EFMSamples{}, false
	}
	return f.Source.GetEFMSamples(src)
}

// ParseRangeSpec parses a range spec like "0-2,5-7,PAD_2,8-9" into a
// FieldMap. "PAD_n" inserts n consecutive padding entries.
func ParseRangeSpec(spec string) (FieldMap, error) {
	return parseRangeSpec(spec)
}
