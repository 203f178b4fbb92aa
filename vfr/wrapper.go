/*
DESCRIPTION
  wrapper.go provides Wrapper, an embeddable delegating-adapter base
  that forwards every VFR method to a held source VFR. Transform stages
  embed Wrapper and override only the methods their transform changes.

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

// Wrapper delegates every VFR method to Source. Concrete wrappers
// embed Wrapper by value and override the subset of methods their
// transform changes; the embedded methods below provide the
// "pass everything else through" default.
type Wrapper struct {
	Source VFR

	// SelfID, when set, overrides ID() for the wrapping VFR; otherwise
	// ID() returns the source's ID, which is only appropriate for
	// wrappers that genuinely produce no new artifact identity (rare —
	// concrete wrappers normally set SelfID).
	SelfID ids.ArtifactID

	// SelfProvenance overrides Provenance() when non-zero.
	SelfProvenance Provenance
}

func (w Wrapper) ID() ids.ArtifactID {
	if w.SelfID != "" {
		return w.SelfID
	}
	return w.Source.ID()
}

func (w Wrapper) Provenance() Provenance {
	if w.SelfProvenance.StageName != "" {
		return w.SelfProvenance
	}
	return w.Source.Provenance()
}

func (w Wrapper) Parameters() videoparams.Parameters { return w.Source.Parameters() }

func (w Wrapper) FieldRange() ids.FieldIDRange { return w.Source.FieldRange() }

func (w Wrapper) FieldCount() int { return w.Source.FieldCount() }

func (w Wrapper) HasField(id ids.FieldID) bool { return w.Source.HasField(id) }

func (w Wrapper) GetDescriptor(id ids.FieldID) (FieldDescriptor, bool) {
	return w.Source.GetDescriptor(id)
}

func (w Wrapper) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	return w.Source.GetLine(id, line)
}

func (w Wrapper) GetField(id ids.FieldID) (sample.Field, bool) {
	return w.Source.GetField(id)
}

func (w Wrapper) HasSeparateChannels() bool { return w.Source.HasSeparateChannels() }

func (w Wrapper) GetFieldLuma(id ids.FieldID) (sample.Field, bool) {
	return w.Source.GetFieldLuma(id)
}

func (w Wrapper) GetFieldChroma(id ids.FieldID) (sample.Field, bool) {
	return w.Source.GetFieldChroma(id)
}

func (w Wrapper) GetLineLuma(id ids.FieldID, line int) ([]uint16, bool) {
	return w.Source.GetLineLuma(id, line)
}

func (w Wrapper) GetLineChroma(id ids.FieldID, line int) ([]uint16, bool) {
	return w.Source.GetLineChroma(id, line)
}

func (w Wrapper) GetDropoutHints(id ids.FieldID) []DropoutRegion {
	return w.Source.GetDropoutHints(id)
}

func (w Wrapper) GetFieldParityHint(id ids.FieldID) (ParityHint, bool) {
	return w.Source.GetFieldParityHint(id)
}

func (w Wrapper) GetFieldPhaseHint(id ids.FieldID) (PhaseHint, bool) {
	return w.Source.GetFieldPhaseHint(id)
}

func (w Wrapper) HasAudio() bool { return w.Source.HasAudio() }

func (w Wrapper) GetAudioSampleCount(id ids.FieldID) int {
	return w.Source.GetAudioSampleCount(id)
}

func (w Wrapper) GetAudioSamples(id ids.FieldID) (AudioSamples, bool) {
	return w.Source.GetAudioSamples(id)
}

func (w Wrapper) HasEFM() bool { return w.Source.HasEFM() }

func (w Wrapper) GetEFMSampleCount(id ids.FieldID) int {
	return w.Source.GetEFMSampleCount(id)
}

func (w Wrapper) GetEFMSamples(id ids.FieldID) (EFMSamples, bool) {
	return w.Source.GetEFMSamples(id)
}
