/*
NAME
  ldaudio.go

DESCRIPTION
  ldaudio.go implements the "ld_audio_source" stage: it attaches an
  external WAV or FLAC audio track to an existing VFR's fields,
  distributing the track's stereo frames evenly across the source's
  field count. Used when a disc capture's audio was recorded
  separately from its embedded .tbc/.tbc.json pair (see
  stages/source/ldfile for audio already embedded at capture time).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ldaudio registers the "ld_audio_source" stage, which attaches
// an external audio track to an existing VFR.
package ldaudio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// TypeName is the registered stage name.
const TypeName = "ld_audio_source"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage by wrapping AudioAttachVFR.
type Stage struct {
	params param.Map
}

// New returns an unconfigured ld_audio_source stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Transform,
		TypeName:    TypeName,
		DisplayName: "LD Audio Attach",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "pcm_path", Type: param.TypeString, Required: true},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("ld_audio_source: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	path := params["pcm_path"].S
	samples, err := readAudio(path)
	if err != nil {
		return nil, fmt.Errorf("ld_audio_source: failed to load %q: %w", path, err)
	}
	out := NewAudioAttachVFR("ld_audio_source", inputs[0], samples)
	return []vfr.VFR{out}, nil
}

func readAudio(path string) ([]int16, error) {
	if strings.HasSuffix(strings.ToLower(path), ".flac") {
		return readFLAC(path)
	}
	return readWAV(path)
}

func readWAV(path string) ([]int16, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	dec := wav.NewDecoder(fh)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = int16(v)
	}
	return out, nil
}

func readFLAC(path string) ([]int16, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	stream, err := flac.Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parsing flac: %w", err)
	}
	var out []int16
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := 0; i < frame.Subframes[0].NSamples; i++ {
			for _, sub := range frame.Subframes {
				out = append(out, int16(sub.Samples[i]))
			}
		}
	}
	return out, nil
}

// AudioAttachVFR wraps a source VFR, serving an externally-loaded audio
// track split evenly (by stereo frame count) across the source's
// fields instead of the source's own audio side-channel.
type AudioAttachVFR struct {
	vfr.Wrapper
	samples []int16
	offsets []int // cumulative stereo-frame offset per field, len fieldCount+1
}

// NewAudioAttachVFR constructs an AudioAttachVFR distributing samples
// (L,R interleaved) evenly across source's fields; any remainder
// stereo frames go to the earliest fields, one each.
func NewAudioAttachVFR(id ids.ArtifactID, source vfr.VFR, samples []int16) *AudioAttachVFR {
	n := source.FieldCount()
	offsets := make([]int, n+1)
	if n > 0 {
		total := len(samples) / 2
		base, rem := total/n, total%n
		for i := 0; i < n; i++ {
			cnt := base
			if i < rem {
				cnt++
			}
			offsets[i+1] = offsets[i] + cnt
		}
	}
	return &AudioAttachVFR{
		Wrapper: vfr.Wrapper{Source: source, SelfID: id},
		samples: samples,
		offsets: offsets,
	}
}

func (a *AudioAttachVFR) HasAudio() bool { return len(a.samples) > 0 }

func (a *AudioAttachVFR) GetAudioSampleCount(id ids.FieldID) int {
	if !a.Source.HasField(id) || int(id) >= len(a.offsets)-1 {
		return 0
	}
	return a.offsets[id+1] - a.offsets[id]
}

func (a *AudioAttachVFR) GetAudioSamples(id ids.FieldID) (vfr.AudioSamples, bool) {
	if !a.Source.HasField(id) || int(id) >= len(a.offsets)-1 {
		return vfr.AudioSamples{}, false
	}
	start, end := a.offsets[id]*2, a.offsets[id+1]*2
	if end > len(a.samples) {
		end = len(a.samples)
	}
	if start >= end {
		return vfr.AudioSamples{}, true
	}
	return vfr.AudioSamples{Data: a.samples[start:end]}, true
}
