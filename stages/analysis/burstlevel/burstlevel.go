/*
NAME
  burstlevel.go

DESCRIPTION
  burstlevel.go implements the "burst_level_analysis_sink" stage:
  computes a per-frame median/mean colour-burst IRE level, binned to
  at most ~1000 data points, with optional CSV export.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package burstlevel registers the "burst_level_analysis_sink" stage.
package burstlevel

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
	"github.com/tbcorc/orc/videoparams"
)

// TypeName is the registered stage name.
const TypeName = "burst_level_analysis_sink"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// FrameStats is one output data point: a bin of one or more fields.
type FrameStats struct {
	FrameNumber    int
	MedianBurstIRE float64
	HasData        bool
}

// Stage implements stage.Stage and stage.Triggerable.
type Stage struct {
	stage.BaseTriggerable
	params param.Map

	mu         sync.Mutex
	frameStats []FrameStats
	hasResults bool
}

// New returns an unconfigured burst_level_analysis_sink stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.AnalysisSink,
		TypeName:    TypeName,
		DisplayName: "Burst Level Analysis Sink",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 0, MaxOutputs: 0,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "output_path", Type: param.TypeString, Default: param.String("")},
		{Name: "write_csv", Type: param.TypeBool, Default: param.Bool(false)},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("burst_level_analysis_sink: %w", err)
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

// Trigger computes burst-level statistics for inputs[0] and, if
// write_csv/output_path are configured, writes a CSV dataset.
func (s *Stage) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	s.Reset()
	s.mu.Lock()
	s.hasResults = false
	s.frameStats = nil
	s.mu.Unlock()

	if len(inputs) == 0 {
		s.SetStatus("Error: No input connected")
		return false, fmt.Errorf("burst_level_analysis_sink: no input provided")
	}
	rep := inputs[0]

	stats, cancelled := s.computeStats(rep)
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
			s.SetStatus(fmt.Sprintf("Burst level analysis complete (CSV write failed: %v)", err))
			return true, nil
		}
	}
	s.SetStatus("Burst level analysis complete")
	return true, nil
}

func (s *Stage) computeStats(rep vfr.VFR) ([]FrameStats, bool) {
	rng := rep.FieldRange()
	total := int(rng.Size())
	if total == 0 {
		return nil, false
	}
	params := rep.Parameters()
	binner := analysis.NewBinner(total)

	for i := 0; i < total; i++ {
		if s.IsCancelled() {
			return nil, true
		}
		fid := rng.Start + ids.FieldID(i)
		if _, ok := rep.GetDescriptor(fid); !ok {
			continue
		}

		level, has := burstLevel(rep, fid, params)
		binner.Add(i+1, level, has)

		if (i+1)%10 == 0 {
			s.ReportProgress(uint64(i+1), uint64(total), fmt.Sprintf("Processing field %d", i))
		}
	}

	bins := binner.Finish()
	stats := make([]FrameStats, len(bins))
	for i, b := range bins {
		stats[i] = FrameStats{
			FrameNumber:    b.FrameNumber,
			MedianBurstIRE: b.Mean(),
			HasData:        b.HasData,
		}
	}
	return stats, false
}

// burstLevel approximates BurstLevelObserver's median_burst_ire
// metric (its .cpp body is unavailable in the retrieved source; only
// the header is) as the mean sample value over the field's configured
// colour-burst window on its first active line.
func burstLevel(rep vfr.VFR, id ids.FieldID, params videoparams.Parameters) (float64, bool) {
	line := params.FirstActiveFieldLine
	data, ok := rep.GetLine(id, line)
	if !ok {
		return 0, false
	}
	start, end := params.ColourBurstStart, params.ColourBurstEnd
	if end <= start || end > len(data) || start < 0 {
		return 0, false
	}
	window := data[start:end]
	if len(window) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range window {
		sum += float64(v)
	}
	return sum / float64(len(window)), true
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
	if err := w.Write([]string{"frame_number", "median_burst_ire"}); err != nil {
		return err
	}
	for _, fs := range stats {
		if !fs.HasData {
			continue
		}
		row := []string{
			strconv.Itoa(fs.FrameNumber),
			strconv.FormatFloat(fs.MedianBurstIRE, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
