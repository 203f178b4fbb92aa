/*
DESCRIPTION
  memory.go provides Memory, a leaf VFR backed entirely by in-memory
  field buffers. It is used by synthetic sources and throughout the
  test suite; on-disk sources (stages/source/ldfile) implement VFR
  directly against a memory-mapped or buffered file instead.

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
	"github.com/tbcorc/orc/videoparams"
)

// MemoryField is one field's worth of data for a Memory VFR.
type MemoryField struct {
	Descriptor FieldDescriptor
	Data       sample.Field
	Luma       sample.Field
	Chroma     sample.Field
	Dropouts   []DropoutRegion
	Parity     *ParityHint
	Phase      *PhaseHint
	Audio      AudioSamples
	EFM        EFMSamples
}

// Memory is a leaf VFR holding a fixed slice of MemoryFields entirely
// in memory, indexed by position (field N of the VFR is Fields[N]).
type Memory struct {
	id         ids.ArtifactID
	provenance Provenance
	params     videoparams.Parameters
	fields     []MemoryField
	separate   bool
	hasAudio   bool
	hasEFM     bool
}

// NewMemory constructs a Memory VFR. separate indicates whether
// Luma/Chroma planes should be served instead of (or in addition to)
// Data.
func NewMemory(id ids.ArtifactID, prov Provenance, params videoparams.Parameters, fields []MemoryField, separate, hasAudio, hasEFM bool) *Memory {
	return &Memory{id: id, provenance: prov, params: params, fields: fields, separate: separate, hasAudio: hasAudio, hasEFM: hasEFM}
}

func (m *Memory) ID() ids.ArtifactID          { return m.id }
func (m *Memory) Provenance() Provenance      { return m.provenance }
func (m *Memory) Parameters() videoparams.Parameters { return m.params }

func (m *Memory) FieldRange() ids.FieldIDRange {
	return ids.FieldIDRange{Start: 0, End: ids.FieldID(len(m.fields))}
}

func (m *Memory) FieldCount() int { return len(m.fields) }

func (m *Memory) HasField(id ids.FieldID) bool {
	return id.Valid() && int(id) < len(m.fields)
}

func (m *Memory) GetDescriptor(id ids.FieldID) (FieldDescriptor, bool) {
	if !m.HasField(id) {
		return FieldDescriptor{}, false
	}
	return m.fields[id].Descriptor, true
}

func (m *Memory) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	if !m.HasField(id) {
		return nil, false
	}
	f := m.fields[id].Data
	if line < 0 || line >= f.Height() {
		return nil, false
	}
	return f.Line(line), true
}

func (m *Memory) GetField(id ids.FieldID) (sample.Field, bool) {
	if !m.HasField(id) {
		return sample.Field{}, false
	}
	return m.fields[id].Data, true
}

func (m *Memory) HasSeparateChannels() bool { return m.separate }

func (m *Memory) GetFieldLuma(id ids.FieldID) (sample.Field, bool) {
	if !m.HasField(id) || !m.separate {
		return sample.Field{}, false
	}
	return m.fields[id].Luma, true
}

func (m *Memory) GetFieldChroma(id ids.FieldID) (sample.Field, bool) {
	if !m.HasField(id) || !m.separate {
		return sample.Field{}, false
	}
	return m.fields[id].Chroma, true
}

func (m *Memory) GetLineLuma(id ids.FieldID, line int) ([]uint16, bool) {
	if !m.HasField(id) || !m.separate {
		return nil, false
	}
	f := m.fields[id].Luma
	if line < 0 || line >= f.Height() {
		return nil, false
	}
	return f.Line(line), true
}

func (m *Memory) GetLineChroma(id ids.FieldID, line int) ([]uint16, bool) {
	if !m.HasField(id) || !m.separate {
		return nil, false
	}
	f := m.fields[id].Chroma
	if line < 0 || line >= f.Height() {
		return nil, false
	}
	return f.Line(line), true
}

func (m *Memory) GetDropoutHints(id ids.FieldID) []DropoutRegion {
	if !m.HasField(id) {
		return nil
	}
	return m.fields[id].Dropouts
}

func (m *Memory) GetFieldParityHint(id ids.FieldID) (ParityHint, bool) {
	if !m.HasField(id) || m.fields[id].Parity == nil {
		return ParityHint{}, false
	}
	return *m.fields[id].Parity, true
}

func (m *Memory) GetFieldPhaseHint(id ids.FieldID) (PhaseHint, bool) {
	if !m.HasField(id) || m.fields[id].Phase == nil {
		return PhaseHint{}, false
	}
	return *m.fields[id].Phase, true
}

func (m *Memory) HasAudio() bool { return m.hasAudio }

func (m *Memory) GetAudioSampleCount(id ids.FieldID) int {
	if !m.HasField(id) || !m.hasAudio {
		return 0
	}
	return len(m.fields[id].Audio.Data) / 2
}

func (m *Memory) GetAudioSamples(id ids.FieldID) (AudioSamples, bool) {
	if !m.HasField(id) || !m.hasAudio {
		return AudioSamples{}, false
	}
	return m.fields[id].Audio, true
}

func (m *Memory) HasEFM() bool { return m.hasEFM }

func (m *Memory) GetEFMSampleCount(id ids.FieldID) int {
	if !m.HasField(id) || !m.hasEFM {
		return 0
	}
	return len(m.fields[id].EFM.Data)
}

func (m *Memory) GetEFMSamples(id ids.FieldID) (EFMSamples, bool) {
	if !m.HasField(id) || !m.hasEFM {
		return EFMSamples{}, false
	}
	return m.fields[id].EFM, true
}
