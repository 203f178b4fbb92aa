/*
NAME
  dropout.go

DESCRIPTION
  dropout.go implements the "dropout_analysis_sink" stage: computes
  per-frame dropout length/count statistics over a VFR's dropout
  hints, binned to at most ~1000 data points, with optional CSV
  export.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dropout registers the "dropout_analysis_sink" stage.
package dropout

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/tbcorc/orc/analysis"
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// TypeName is the registered stage name.
const TypeName = "dropout_analysis_sink"

// Mode selects whether dropout regions are counted across the whole
// field or clipped to the active video area.
type Mode int

const (
	ModeFullField Mode = iota
	ModeVisibleArea
)

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// FrameStats is one output data point: a bin of one or more fields.
type FrameStats struct {
	FrameNumber        int
	TotalDropoutLength float64
	TotalDropoutCount  float64
	HasData            bool
}

// Stage implements stage.Stage and stage.Triggerable.
type Stage struct {
	stage.BaseTriggerable
	params param.Map

	mu         sync.Mutex
	frameStats []FrameStats
	hasResults bool
}

// New returns an unconfigured dropout_analysis_sink stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.AnalysisSink,
		TypeName:    TypeName,
		DisplayName: "Dropout Analysis Sink",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 0, MaxOutputs: 0,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "output_path", Type: param.TypeString, Default: param.String("")},
		{Name: "write_csv", Type: param.TypeBool, Default: param.Bool(false)},
		{Name: "mode", Type: param.TypeString, Default: param.String("full"), AllowedStrings: []string{"full", "visible"}},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("dropout_analysis_sink: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	return nil, nil
}

// FrameStatsResult returns the bins computed by the most recent
// successful Trigger call.
func (s *Stage) FrameStatsResult() ([]FrameStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameStats, s.hasResults
}

// Results implements stage.AnalysisResults.
func (s *Stage) Results() (interface{}, bool) {
	return s.FrameStatsResult()
}

func modeFromParams(m param.Map) Mode {
	if v, ok := m["mode"]; ok && v.S == "visible" {
		return ModeVisibleArea
	}
	return ModeFullField
}

// Trigger computes dropout statistics for inputs[0] and, if
// write_csv/output_path are configured, writes a CSV dataset.
func (s *Stage) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	s.Reset()
	s.mu.Lock()
	s.hasResults = false
	s.frameStats = nil
	s.mu.Unlock()

	if len(inputs) == 0 {
		s.SetStatus("Error: No input connected")
		return false, fmt.Errorf("dropout_analysis_sink: no input provided")
	}
	rep := inputs[0]

	mode := modeFromParams(params)
	stats, cancelled := s.computeStats(rep, mode)
	if cancelled {
		s.SetStatus(stage.CancelledStatus)
		return false, nil
	}

	s.mu.Lock()
	s.frameStats = stats
	s.hasResults = true
	s.mu.Unlock()

	writeCSV := params["write_csv"].B
	outputPath := params["output_path"].S
	if writeCSV && outputPath != "" {
		if err := s.writeCSV(outputPath, stats); err != nil {
			s.SetStatus(fmt.Sprintf("Dropout analysis complete (CSV write failed: %v)", err))
			return true, nil
		}
	}
	s.SetStatus("Dropout analysis complete")
	return true, nil
}

func (s *Stage) computeStats(rep vfr.VFR, mode Mode) ([]FrameStats, bool) {
	rng := rep.FieldRange()
	total := int(rng.Size())
	if total == 0 {
		return nil, false
	}
	params := rep.Parameters()

	type accum struct {
		length, count float64
		hasData       bool
	}
	frameAccum := make(map[int]*accum)
	order := []int{}

	for i := 0; i < total; i++ {
		if s.IsCancelled() {
			return nil, true
		}
		fid := rng.Start + ids.FieldID(i)
		desc, ok := rep.GetDescriptor(fid)
		if !ok {
			continue
		}

		var fieldLength float64
		var fieldCount int
		for _, d := range rep.GetDropoutHints(fid) {
			start, end := d.StartSample, d.EndSample
			include := true
			if mode == ModeVisibleArea {
				if params.LastActiveFieldLine > params.FirstActiveFieldLine &&
					(d.Line < params.FirstActiveFieldLine || d.Line > params.LastActiveFieldLine) {
					include = false
				}
				if include && params.ActiveVideoEnd > params.ActiveVideoStart {
					if end <= params.ActiveVideoStart || start >= params.ActiveVideoEnd {
						include = false
					} else {
						if start < params.ActiveVideoStart {
							start = params.ActiveVideoStart
						}
						if end > params.ActiveVideoEnd {
							end = params.ActiveVideoEnd
						}
					}
				}
			}
			if include {
				fieldLength += float64(end - start)
				fieldCount++
			}
		}

		frameNum := desc.FrameNumber
		if frameNum < 0 {
			frameNum = i/2 + 1
		}
		a, ok := frameAccum[frameNum]
		if !ok {
			a = &accum{}
			frameAccum[frameNum] = a
			order = append(order, frameNum)
		}
		a.length += fieldLength
		a.count += float64(fieldCount)
		if fieldCount > 0 {
			a.hasData = true
		}

		if (i+1)%10 == 0 {
			s.ReportProgress(uint64(i+1), uint64(total), fmt.Sprintf("Processing field %d", i))
		}
	}

	if len(order) == 0 {
		return nil, false
	}

	binner := analysis.NewBinner(len(order))
	for _, frameNum := range order {
		a := frameAccum[frameNum]
		binner.Add(frameNum, a.length, a.hasData)
	}
	countBinner := analysis.NewBinner(len(order))
	for _, frameNum := range order {
		a := frameAccum[frameNum]
		countBinner.Add(frameNum, a.count, a.hasData)
	}

	lengthBins := binner.Finish()
	countBins := countBinner.Finish()
	stats := make([]FrameStats, len(lengthBins))
	for i := range lengthBins {
		stats[i] = FrameStats{
			FrameNumber:        lengthBins[i].FrameNumber,
			TotalDropoutLength: lengthBins[i].Sum(),
			TotalDropoutCount:  countBins[i].Sum(),
			HasData:            lengthBins[i].HasData,
		}
	}
	return stats, false
}

func (s *Stage) writeCSV(path string, stats []FrameStats) error {
	if len(stats) == 0 {
		return fmt.Errorf("no data to write")
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	defer w.Flush()
	if err := w.Write([]string{"frame_number", "total_dropout_length_samples", "total_dropout_count"}); err != nil {
		return err
	}
	for _, fs := range stats {
		if !fs.HasData {
			continue
		}
		row := []string{
			strconv.Itoa(fs.FrameNumber),
			strconv.FormatFloat(fs.TotalDropoutLength, 'f', -1, 64),
			strconv.FormatFloat(fs.TotalDropoutCount, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
