/*
NAME
  efmsink.go

DESCRIPTION
  efmsink.go implements the "efm_sink" stage: a Triggerable batch
  export of a VFR's EFM t-value side-channel to a raw binary file.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package efmsink registers the "efm_sink" stage, which exports a
// VFR's EFM t-value side-channel to a raw byte stream on Trigger.
package efmsink

import (
	"errors"
	"fmt"
	"os"

	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// TypeName is the registered stage name.
const TypeName = "efm_sink"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage and stage.Triggerable.
type Stage struct {
	stage.BaseTriggerable
	params param.Map
}

// New returns an unconfigured efm_sink stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Sink,
		TypeName:    TypeName,
		DisplayName: "EFM Data Sink",
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
		return fmt.Errorf("efm_sink: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	return nil, nil
}

// Trigger writes inputs[0]'s EFM t-values to the configured
// output_path as a raw byte stream.
func (s *Stage) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	s.Reset()
	s.SetStatus("Starting export...")

	if len(inputs) == 0 {
		s.SetStatus("Error: EFM sink requires one input")
		return false, errors.New("efm_sink: no input provided")
	}
	rep := inputs[0]
	if !rep.HasEFM() {
		s.SetStatus("Error: Input does not have EFM data")
		return false, errors.New("efm_sink: input VFR has no EFM data")
	}

	outputPath := params["output_path"].S
	if outputPath == "" {
		s.SetStatus("Error: Output path is empty")
		return false, errors.New("efm_sink: output_path is empty")
	}

	written, err := s.writeEFM(rep, outputPath)
	if err != nil {
		os.Remove(outputPath)
		s.SetStatus(fmt.Sprintf("Error: %v", err))
		return false, err
	}
	if written < 0 {
		os.Remove(outputPath)
		s.SetStatus(stage.CancelledStatus)
		return false, nil
	}
	s.SetStatus(fmt.Sprintf("Success: %d t-values written", written))
	return true, nil
}

// writeEFM streams every field's EFM t-values to a raw binary file,
// returning the number of t-values written, or -1 if cancelled.
func (s *Stage) writeEFM(rep vfr.VFR, outputPath string) (int, error) {
	rng := rep.FieldRange()
	var totalTValues uint64
	for id := rng.Start; id < rng.End; id++ {
		totalTValues += uint64(rep.GetEFMSampleCount(id))
	}
	if totalTValues == 0 {
		return 0, errors.New("no EFM t-values found in field range")
	}

	fh, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("opening output file: %w", err)
	}
	defer fh.Close()

	total := rng.Size()
	var processed, written uint64
	for id := rng.Start; id < rng.End; id++ {
		if s.IsCancelled() {
			return -1, nil
		}

		tvalues, ok := rep.GetEFMSamples(id)
		if ok && len(tvalues.Data) > 0 {
			if _, err := fh.Write(tvalues.Data); err != nil {
				return 0, fmt.Errorf("writing EFM field %d: %w", id, err)
			}
			written += uint64(len(tvalues.Data))
		}

		processed++
		if processed%10 == 0 {
			s.ReportProgress(processed, total, fmt.Sprintf("Writing EFM field %d/%d", processed, total))
		}
	}

	return int(written), nil
}
