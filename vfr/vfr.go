/*
DESCRIPTION
  vfr.go defines VideoFieldRepresentation (VFR), the central lazy
  field-sequence abstraction of the pipeline, along with the small
  descriptor and hint types it exposes.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vfr provides VideoFieldRepresentation (VFR), the polymorphic
// lazy field sequence at the centre of the pipeline, and Wrapper, the
// delegating adapter base used by transform stages to compose VFRs
// without copying sample data.
package vfr

import (
	"time"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/videoparams"
)

// Parity distinguishes the two interlaced fields of a frame.
type Parity int

// Field parities.
const (
	ParityUnknown Parity = iota
	Top
	Bottom
)

// FieldDescriptor carries the per-field metadata described in spec §3.
type FieldDescriptor struct {
	FieldID     ids.FieldID
	Width       int
	Height      int
	Format      videoparams.System
	Parity      Parity
	FrameNumber int // -1 if absent.
}

// DropoutRegion is a per-field dropout hint.
type DropoutRegion struct {
	Line        int
	StartSample int
	EndSample   int // exclusive
	Basis       string
}

// ParityHint carries a per-field parity/field-ordering tag for
// downstream stages.
type ParityHint struct {
	IsFirstField bool
}

// PhaseHint carries a per-field colour-subcarrier-phase tag for
// downstream stages.
type PhaseHint struct {
	Phase int
}

// Provenance describes how a VFR was produced: the owning stage, its
// version, the parameters it was configured with, the input artifact
// IDs it was built from, and when it was produced.
type Provenance struct {
	StageName string
	Version   string
	Params    map[string]string
	Inputs    []ids.ArtifactID
	Produced  time.Time
}

// AudioSamples holds signed-16 stereo-interleaved PCM at a fixed rate
// (44,100 Hz per spec §6).
type AudioSamples struct {
	Data []int16 // L, R, L, R, ...
}

// EFMSamples holds 8-bit "t-values" in [3,11].
type EFMSamples struct {
	Data []byte
}

// VFR is a finite, 0-indexed lazy sequence of fields. Implementations
// advertise capabilities via the Has* predicates; callers MUST check a
// capability before relying on the corresponding accessor's return
// value being meaningful (an unsupported accessor returns the zero
// value and ok=false rather than panicking).
//
// VFRs are logically immutable: all methods are read-only and may be
// called concurrently from a single owner's threads (spec §3).
type VFR interface {
	// ID returns this VFR's artifact identity.
	ID() ids.ArtifactID

	// Provenance describes how this VFR was produced.
	Provenance() Provenance

	// Parameters returns the VideoParameters that apply to every field
	// of this VFR.
	Parameters() videoparams.Parameters

	// FieldRange returns the [start,end) range of field IDs this VFR
	// exposes. FieldRange().Size() == FieldCount().
	FieldRange() ids.FieldIDRange

	// FieldCount returns the number of fields this VFR exposes.
	FieldCount() int

	// HasField reports whether id is a field this VFR exposes. This is
	// the source of truth for membership — it may diverge from simple
	// range containment when a wrapper remaps indices.
	HasField(id ids.FieldID) bool

	// GetDescriptor returns the FieldDescriptor for id. ok is false if
	// HasField(id) is false.
	GetDescriptor(id ids.FieldID) (FieldDescriptor, bool)

	// GetLine returns a borrowed view of one row of samples. ok is
	// false if HasField(id) is false or line is out of range.
	GetLine(id ids.FieldID, line int) ([]uint16, bool)

	// GetField assembles and returns the entire field as a contiguous
	// buffer equal to width*height samples — logically equal to the
	// concatenation of GetLine results in order, though
	// implementations may use a more efficient path. ok is false if
	// HasField(id) is false.
	GetField(id ids.FieldID) (sample.Field, bool)

	// HasSeparateChannels reports whether this VFR exposes luma and
	// chroma as independent streams.
	HasSeparateChannels() bool

	// GetFieldLuma and GetFieldChroma return the luma/chroma planes of
	// a field when HasSeparateChannels() is true.
	GetFieldLuma(id ids.FieldID) (sample.Field, bool)
	GetFieldChroma(id ids.FieldID) (sample.Field, bool)

	// GetLineLuma and GetLineChroma return one row of the luma/chroma
	// planes when HasSeparateChannels() is true.
	GetLineLuma(id ids.FieldID, line int) ([]uint16, bool)
	GetLineChroma(id ids.FieldID, line int) ([]uint16, bool)

	// GetDropoutHints returns the dropout regions detected for id, if
	// any. A padding field or one with no detected dropouts returns an
	// empty (not nil-checked) slice.
	GetDropoutHints(id ids.FieldID) []DropoutRegion

	// GetFieldParityHint and GetFieldPhaseHint return the optional
	// per-field parity/phase tags. ok is false if no hint is carried
	// for id (including all padding fields).
	GetFieldParityHint(id ids.FieldID) (ParityHint, bool)
	GetFieldPhaseHint(id ids.FieldID) (PhaseHint, bool)

	// HasAudio reports whether this VFR carries an audio side-channel.
	HasAudio() bool

	// GetAudioSampleCount returns the number of audio samples
	// associated with field id, drawn from per-field metadata.
	GetAudioSampleCount(id ids.FieldID) int

	// GetAudioSamples returns the audio samples for field id.
	GetAudioSamples(id ids.FieldID) (AudioSamples, bool)

	// HasEFM reports whether this VFR carries an EFM side-channel.
	HasEFM() bool

	// GetEFMSampleCount returns the number of EFM t-values associated
	// with field id.
	GetEFMSampleCount(id ids.FieldID) int

	// GetEFMSamples returns the EFM t-values for field id.
	GetEFMSamples(id ids.FieldID) (EFMSamples, bool)
}
