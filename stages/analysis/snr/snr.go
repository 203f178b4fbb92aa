/*
NAME
  snr.go

DESCRIPTION
  snr.go implements the "snr_analysis_sink" stage: computes per-frame
  white-flag SNR and black-level PSNR statistics, binned to at most
  ~1000 data points, with optional CSV export.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package snr registers the "snr_analysis_sink" stage.
package snr

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/stat"

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
const TypeName = "snr_analysis_sink"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// FrameStats is one output data point: a bin of one or more fields.
type FrameStats struct {
	FrameNumber  int
	WhiteSNR     float64
	HasWhiteSNR  bool
	BlackPSNR    float64
	HasBlackPSNR bool
	HasData      bool
}

// Stage implements stage.Stage and stage.Triggerable.
type Stage struct {
	stage.BaseTriggerable
	params param.Map

	mu         sync.Mutex
	frameStats []FrameStats
	hasResults bool
}

// New returns an unconfigured snr_analysis_sink stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.AnalysisSink,
		TypeName:    TypeName,
		DisplayName: "SNR Analysis Sink",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 0, MaxOutputs: 0,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "output_path", Type: param.TypeString, Default: param.String("")},
		{Name: "write_csv", Type: param.TypeBool, Default: param.Bool(false)},
		{Name: "mode", Type: param.TypeString, Default: param.String("both"), AllowedStrings: []string{"white", "black", "both"}},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("snr_analysis_sink: %w", err)
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

// Trigger computes SNR/PSNR statistics for inputs[0] and, if
// write_csv/output_path are configured, writes a CSV dataset.
func (s *Stage) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	s.Reset()
	s.mu.Lock()
	s.hasResults = false
	s.frameStats = nil
	s.mu.Unlock()

	if len(inputs) == 0 {
		s.SetStatus("Error: No input connected")
		return false, fmt.Errorf("snr_analysis_sink: no input provided")
	}
	rep := inputs[0]

	mode := params["mode"].S
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
			s.SetStatus(fmt.Sprintf("SNR analysis complete (CSV write failed: %v)", err))
			return true, nil
		}
	}
	s.SetStatus("SNR analysis complete")
	return true, nil
}

func (s *Stage) computeStats(rep vfr.VFR, mode string) ([]FrameStats, bool) {
	rng := rep.FieldRange()
	total := int(rng.Size())
	if total == 0 {
		return nil, false
	}

	whiteBinner := analysis.NewBinner(total)
	blackBinner := analysis.NewBinner(total)
	params := rep.Parameters()

	for i := 0; i < total; i++ {
		if s.IsCancelled() {
			return nil, true
		}
		fid := rng.Start + ids.FieldID(i)
		desc, ok := rep.GetDescriptor(fid)
		if !ok {
			continue
		}

		white, hasWhite := whiteSNR(rep, fid, params, mode)
		black, hasBlack := blackPSNR(rep, fid, params, mode)

		frameNum := i + 1
		whiteBinner.Add(frameNum, white, hasWhite)
		blackBinner.Add(frameNum, black, hasBlack)
		_ = desc

		if (i+1)%10 == 0 {
			s.ReportProgress(uint64(i+1), uint64(total), fmt.Sprintf("Processing field %d", i))
		}
	}

	whiteBins := whiteBinner.Finish()
	blackBins := blackBinner.Finish()
	stats := make([]FrameStats, len(whiteBins))
	for i := range whiteBins {
		stats[i] = FrameStats{
			FrameNumber:  i + 1,
			WhiteSNR:     whiteBins[i].Mean(),
			HasWhiteSNR:  whiteBins[i].HasData,
			BlackPSNR:    blackBins[i].Mean(),
			HasBlackPSNR: blackBins[i].HasData,
			HasData:      whiteBins[i].HasData || blackBins[i].HasData,
		}
	}
	return stats, false
}

// referenceLine returns the active-video sample window of the first
// active field line, used as this stage's stand-in for the VITS
// white-flag/black-reference test lines: the algorithm (mean as
// signal, stddev as noise) is well defined, but the exact test-line
// timing constants are not, so the active picture area is used
// instead of a specific VBI line.
func referenceLine(rep vfr.VFR, id ids.FieldID, params videoparams.Parameters) ([]uint16, bool) {
	line := params.FirstActiveFieldLine
	data, ok := rep.GetLine(id, line)
	if !ok {
		return nil, false
	}
	start, end := params.ActiveVideoStart, params.ActiveVideoEnd
	if end <= start || end > len(data) {
		return data, len(data) > 0
	}
	return data[start:end], true
}

func toFloat64(samples []uint16) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	return out
}

// whiteSNR computes 20*log10(whiteLevel/noiseStdDev) over the
// reference line's active samples.
func whiteSNR(rep vfr.VFR, id ids.FieldID, params videoparams.Parameters, mode string) (float64, bool) {
	if mode == "black" {
		return 0, false
	}
	samples, ok := referenceLine(rep, id, params)
	if !ok || len(samples) < 2 {
		return 0, false
	}
	data := toFloat64(samples)
	noise := stat.StdDev(data, nil)
	if noise == 0 {
		noise = 1
	}
	signal := float64(params.White16bIRE)
	return 20 * math.Log10(signal/noise), true
}

// blackPSNR computes 20*log10(peakSignal/noiseStdDev) over the
// reference line's active samples, where peakSignal is the full
// white-to-black swing (the "peak" in Peak SNR).
func blackPSNR(rep vfr.VFR, id ids.FieldID, params videoparams.Parameters, mode string) (float64, bool) {
	if mode == "white" {
		return 0, false
	}
	samples, ok := referenceLine(rep, id, params)
	if !ok || len(samples) < 2 {
		return 0, false
	}
	data := toFloat64(samples)
	noise := stat.StdDev(data, nil)
	if noise == 0 {
		noise = 1
	}
	peak := float64(params.White16bIRE - params.Black16bIRE)
	return 20 * math.Log10(peak/noise), true
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
	if err := w.Write([]string{"frame_number", "white_snr_db", "black_psnr_db"}); err != nil {
		return err
	}
	for _, fs := range stats {
		if !fs.HasData {
			continue
		}
		row := []string{
			strconv.Itoa(fs.FrameNumber),
			formatOptional(fs.WhiteSNR, fs.HasWhiteSNR),
			formatOptional(fs.BlackPSNR, fs.HasBlackPSNR),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatOptional(v float64, has bool) string {
	if !has {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
