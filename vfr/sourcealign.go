/*
DESCRIPTION
  sourcealign.go implements the source-align (drop-prefix) wrapper,
  which shifts indices by a per-source offset (spec §4.3).

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

// SourceAlignVFR shifts a source's field indices so that output field
// 0 corresponds to source field Offset. A negative or otherwise
// invalid Offset yields a zero-field VFR, excluding the source from
// outputs entirely.
type SourceAlignVFR struct {
	Wrapper
	Offset int
}

// NewSourceAlignVFR constructs a SourceAlignVFR.
func NewSourceAlignVFR(id ids.ArtifactID, source VFR, offset int) *SourceAlignVFR {
	return &SourceAlignVFR{Wrapper: Wrapper{Source: source, SelfID: id}, Offset: offset}
}

func (s *SourceAlignVFR) valid() bool {
	return s.Offset >= 0 && s.Offset < s.Source.FieldCount()
}

func (s *SourceAlignVFR) srcID(id ids.FieldID) (ids.FieldID, bool) {
	if !s.valid() {
		return 0, false
	}
	src := ids.FieldID(int(id) + s.Offset)
	if !s.Source.HasField(src) {
		return 0, false
	}
	return src, true
}

func (s *SourceAlignVFR) FieldRange() ids.FieldIDRange {
	if !s.valid() {
		return ids.FieldIDRange{}
	}
	n := s.Source.FieldCount() - s.Offset
	return ids.FieldIDRange{Start: 0, End: ids.FieldID(n)}
}

func (s *SourceAlignVFR) FieldCount() int {
	if !s.valid() {
		return 0
	}
	return s.Source.FieldCount() - s.Offset
}

func (s *SourceAlignVFR) HasField(id ids.FieldID) bool {
	_, ok := s.srcID(id)
	return ok
}

func (s *SourceAlignVFR) GetDescriptor(id ids.FieldID) (FieldDescriptor, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return FieldDescriptor{}, false
	}
	d, ok := s.Source.GetDescriptor(src)
	if !ok {
		return FieldDescriptor{}, false
	}
	d.FieldID = id
	return d, true
}

func (s *SourceAlignVFR) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return nil, false
	}
	return s.Source.GetLine(src, line)
}

func (s *SourceAlignVFR) GetField(id ids.FieldID) (sample.Field, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return sample.Field{}, false
	}
	return s.Source.GetField(src)
}

func (s *SourceAlignVFR) GetFieldLuma(id ids.FieldID) (sample.Field, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return sample.Field{}, false
	}
	return s.Source.GetFieldLuma(src)
}

func (s *SourceAlignVFR) GetFieldChroma(id ids.FieldID) (sample.Field, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return sample.Field{}, false
	}
	return s.Source.GetFieldChroma(src)
}

func (s *SourceAlignVFR) GetLineLuma(id ids.FieldID, line int) ([]uint16, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return nil, false
	}
	return s.Source.GetLineLuma(src, line)
}

func (s *SourceAlignVFR) GetLineChroma(id ids.FieldID, line int) ([]uint16, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return nil, false
	}
	return s.Source.GetLineChroma(src, line)
}

func (s *SourceAlignVFR) GetDropoutHints(id ids.FieldID) []DropoutRegion {
	src, ok := s.srcID(id)
	if !ok {
		return nil
	}
	return s.Source.GetDropoutHints(src)
}

func (s *SourceAlignVFR) GetFieldParityHint(id ids.FieldID) (ParityHint, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return ParityHint{}, false
	}
	return s.Source.GetFieldParityHint(src)
}

func (s *SourceAlignVFR) GetFieldPhaseHint(id ids.FieldID) (PhaseHint, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return PhaseHint{}, false
	}
	return s.Source.GetFieldPhaseHint(src)
}

func (s *SourceAlignVFR) GetAudioSampleCount(id ids.FieldID) int {
	src, ok := s.srcID(id)
	if !ok {
		return 0
	}
	return s.Source.GetAudioSampleCount(src)
}

func (s *SourceAlignVFR) GetAudioSamples(id ids.FieldID) (AudioSamples, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return AudioSamples{}, false
	}
	return s.Source.GetAudioSamples(src)
}

func (s *SourceAlignVFR) GetEFMSampleCount(id ids.FieldID) int {
	src, ok := s.srcID(id)
	if !ok {
		return 0
	}
	return s.Source.GetEFMSampleCount(src)
}

func (s *SourceAlignVFR) GetEFMSamples(id ids.FieldID) (EFMSamples, bool) {
	src, ok := s.srcID(id)
	if !ok {
		return EFMSamples{}, false
	}
	return s.Source.GetEFMSamples(src)
}
