/*
NAME
  audiosink.go

DESCRIPTION
  audiosink.go implements the "audio_sink" stage: a Triggerable batch
  export of a VFR's audio side-channel to a stereo 16-bit WAV file.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package audiosink registers the "audio_sink" stage, which exports a
// VFR's audio side-channel to a WAV file on Trigger.
package audiosink

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// TypeName is the registered stage name.
const TypeName = "audio_sink"

const (
	sampleRate    = 44100
	bitsPerSample = 16
	numChannels   = 2
)

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage and stage.Triggerable.
type Stage struct {
	stage.BaseTriggerable
	params param.Map
}

// New returns an unconfigured audio_sink stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Sink,
		TypeName:    TypeName,
		DisplayName: "Analogue Audio Sink",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 0, MaxOutputs: 0,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "output_path", Type: param.TypeString, Required: true},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("audio_sink: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	return nil, nil
}

// Trigger writes inputs[0]'s audio side-channel to the configured
// output_path as a stereo 16-bit WAV file.
func (s *Stage) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	s.Reset()
	s.SetStatus("Starting export...")

	if len(inputs) == 0 {
		s.SetStatus("Error: Audio sink requires one input")
		return false, errors.New("audio_sink: no input provided")
	}
	rep := inputs[0]
	if !rep.HasAudio() {
		s.SetStatus("Error: Input does not have audio data")
		return false, errors.New("audio_sink: input VFR has no audio data")
	}

	outputPath := params["output_path"].S
	if outputPath == "" {
		s.SetStatus("Error: Output path is empty")
		return false, errors.New("audio_sink: output_path is empty")
	}

	framesWritten, err := s.writeWAV(rep, outputPath)
	if err != nil {
		os.Remove(outputPath)
		s.SetStatus(fmt.Sprintf("Error: %v", err))
		return false, err
	}
	if framesWritten < 0 {
		os.Remove(outputPath)
		s.SetStatus(stage.CancelledStatus)
		return false, nil
	}
	s.SetStatus(fmt.Sprintf("Success: %d samples written", framesWritten))
	return true, nil
}

// writeWAV streams every field's stereo audio samples into a WAV file,
// returning the number of stereo frames written, or -1 if cancelled.
func (s *Stage) writeWAV(rep vfr.VFR, outputPath string) (int, error) {
	rng := rep.FieldRange()
	var totalSamples uint64
	for id := rng.Start; id < rng.End; id++ {
		totalSamples += uint64(rep.GetAudioSampleCount(id))
	}
	if totalSamples == 0 {
		return 0, errors.New("no audio samples found in field range")
	}

	fh, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("opening output file: %w", err)
	}
	defer fh.Close()

	enc := wav.NewEncoder(fh, sampleRate, bitsPerSample, numChannels, 1)

	total := rng.Size()
	var processed, framesWritten uint64
	for id := rng.Start; id < rng.End; id++ {
		if s.IsCancelled() {
			enc.Close()
			return -1, nil
		}

		samples, ok := rep.GetAudioSamples(id)
		if ok && len(samples.Data) > 0 {
			data := make([]int, len(samples.Data))
			for i, v := range samples.Data {
				data[i] = int(v)
			}
			buf := &audio.IntBuffer{
				Format: &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
				Data:   data,
			}
			if err := enc.Write(buf); err != nil {
				return 0, fmt.Errorf("writing audio field %d: %w", id, err)
			}
			framesWritten += uint64(len(samples.Data)) / 2
		}

		processed++
		if processed%10 == 0 {
			s.ReportProgress(processed, total, fmt.Sprintf("Writing audio field %d/%d", processed, total))
		}
	}

	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("finalizing WAV file: %w", err)
	}
	return int(framesWritten), nil
}
