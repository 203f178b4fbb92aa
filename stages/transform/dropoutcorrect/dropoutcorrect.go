/*
NAME
  dropoutcorrect.go

DESCRIPTION
  dropoutcorrect.go implements dropout correction: a transform that
  replaces samples inside flagged dropout regions with samples
  borrowed from a nearby line, scored by inverse variance, searching
  intrafield first and falling back to interfield (spec §4.9).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dropoutcorrect registers the "dropout_correct" transform
// stage, the pipeline's illustrative non-trivial transform.
package dropoutcorrect

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// TypeName is the registered stage name.
const TypeName = "dropout_correct"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Config holds the dropout-correct transform's tunables.
type Config struct {
	OvercorrectExtension   int
	IntrafieldOnly         bool
	ReverseFieldOrder      bool
	MaxReplacementDistance int
	MatchChromaPhase       bool
}

// DefaultConfig returns the dropout-correct transform's default tunables.
func DefaultConfig() Config {
	return Config{
		OvercorrectExtension:   0,
		IntrafieldOnly:         false,
		ReverseFieldOrder:      false,
		MaxReplacementDistance: 10,
		MatchChromaPhase:       true,
	}
}

// Decisions records per-(field, region-index) accept/reject overrides
// applied before overcorrection and splitting. A region absent from
// Rejected is accepted by default.
type Decisions struct {
	Rejected map[ids.FieldID]map[int]bool
}

func (d Decisions) isRejected(field ids.FieldID, index int) bool {
	if d.Rejected == nil {
		return false
	}
	return d.Rejected[field][index]
}

// applyDecisions filters out regions rejected for field.
func applyDecisions(field ids.FieldID, regions []vfr.DropoutRegion, d Decisions) []vfr.DropoutRegion {
	if d.Rejected == nil {
		return regions
	}
	out := make([]vfr.DropoutRegion, 0, len(regions))
	for i, r := range regions {
		if !d.isRejected(field, i) {
			out = append(out, r)
		}
	}
	return out
}

// Stage implements stage.Stage wrapping DropoutCorrectVFR.
type Stage struct {
	params    param.Map
	config    Config
	decisions Decisions
}

// New returns a dropout-correct stage with default configuration and
// no decisions applied.
func New() *Stage {
	return &Stage{config: DefaultConfig()}
}

// SetDecisions installs user accept/reject overrides applied on the
// next Execute call.
func (s *Stage) SetDecisions(d Decisions) { s.decisions = d }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Transform,
		TypeName:    TypeName,
		DisplayName: "Dropout Correct",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "overcorrect_extension", Type: param.TypeInt, HasMin: true, Min: 0, HasMax: true, Max: 48, Default: param.Int(0)},
		{Name: "intrafield_only", Type: param.TypeBool, Default: param.Bool(false)},
		{Name: "reverse_field_order", Type: param.TypeBool, Default: param.Bool(false)},
		{Name: "max_replacement_distance", Type: param.TypeInt, HasMin: true, Min: 1, HasMax: true, Max: 50, Default: param.Int(10)},
		{Name: "match_chroma_phase", Type: param.TypeBool, Default: param.Bool(true)},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("dropout_correct: %w", err)
	}
	cfg := DefaultConfig()
	if v, ok := m["overcorrect_extension"]; ok {
		cfg.OvercorrectExtension = int(v.I)
	}
	if v, ok := m["intrafield_only"]; ok {
		cfg.IntrafieldOnly = v.B
	}
	if v, ok := m["reverse_field_order"]; ok {
		cfg.ReverseFieldOrder = v.B
	}
	if v, ok := m["max_replacement_distance"]; ok {
		cfg.MaxReplacementDistance = int(v.I)
	}
	if v, ok := m["match_chroma_phase"]; ok {
		cfg.MatchChromaPhase = v.B
	}
	s.params = m
	s.config = cfg
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	out := NewDropoutCorrectVFR("dropout_correct", inputs[0], s.config, s.decisions)
	return []vfr.VFR{out}, nil
}

// boundaries returns the colour-burst end and active-video end sample
// offsets for a video system (a placeholder pending real per-system
// calibration; see videoparams.Parameters.ColourBurstEnd/ActiveVideoEnd
// for the caller-supplied, source-calibrated equivalents used when
// available).
func boundaries(p videoparams.Parameters) (colourBurstEnd, activeVideoEnd int) {
	if p.ColourBurstEnd > 0 || p.ActiveVideoEnd > 0 {
		return p.ColourBurstEnd, p.ActiveVideoEnd
	}
	switch p.System {
	case videoparams.PAL, videoparams.PALM:
		return 100, p.FieldWidth - 20
	case videoparams.NTSC:
		return 80, p.FieldWidth - 20
	default:
		return 0, p.FieldWidth
	}
}

// splitRegion splits a dropout region straddling the colour-burst end,
// and truncates one ending past the active-video end, mirroring the
// original split_dropout_regions/classify_dropout logic.
func splitRegion(r vfr.DropoutRegion, colourBurstEnd, activeVideoEnd int) []vfr.DropoutRegion {
	if r.StartSample <= colourBurstEnd {
		if r.EndSample > colourBurstEnd {
			burst := r
			burst.EndSample = colourBurstEnd
			active := r
			active.StartSample = colourBurstEnd + 1
			return []vfr.DropoutRegion{burst, active}
		}
		return []vfr.DropoutRegion{r}
	}
	if r.EndSample > activeVideoEnd {
		r.EndSample = activeVideoEnd
	}
	return []vfr.DropoutRegion{r}
}

// DropoutCorrectVFR is the wrapper VFR produced by the dropout-correct
// transform. Corrected lines are memoized lazily per field; the
// memoization is an implementation detail guarded by a mutex, not a
// visible mutation — repeated reads of the same field always return
// the same bytes.
type DropoutCorrectVFR struct {
	vfr.Wrapper
	config    Config
	decisions Decisions

	mu        sync.Mutex
	corrected map[ids.FieldID]map[int][]uint16 // field -> line -> corrected samples
}

// NewDropoutCorrectVFR constructs a DropoutCorrectVFR over source.
func NewDropoutCorrectVFR(id ids.ArtifactID, source vfr.VFR, config Config, decisions Decisions) *DropoutCorrectVFR {
	return &DropoutCorrectVFR{
		Wrapper:   vfr.Wrapper{Source: source, SelfID: id},
		config:    config,
		decisions: decisions,
		corrected: make(map[ids.FieldID]map[int][]uint16),
	}
}

// GetLine returns line of field id, substituting the corrected version
// when dropout correction replaced samples on that line.
func (d *DropoutCorrectVFR) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	lines := d.ensureField(id)
	if corrected, ok := lines[line]; ok {
		return corrected, true
	}
	return d.Source.GetLine(id, line)
}

// GetField assembles field id line by line, using corrected lines
// where dropout correction applied.
func (d *DropoutCorrectVFR) GetField(id ids.FieldID) (sample.Field, bool) {
	desc, ok := d.Source.GetDescriptor(id)
	if !ok {
		return sample.Field{}, false
	}
	buf := make([]uint16, desc.Width*desc.Height)
	for line := 0; line < desc.Height; line++ {
		data, ok := d.GetLine(id, line)
		if !ok {
			return sample.Field{}, false
		}
		copy(buf[line*desc.Width:(line+1)*desc.Width], data)
	}
	return sample.NewField(desc.Width, desc.Height, buf), true
}

func (d *DropoutCorrectVFR) ensureField(id ids.FieldID) map[int][]uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if lines, ok := d.corrected[id]; ok {
		return lines
	}
	lines := d.correctField(id)
	d.corrected[id] = lines
	return lines
}

func (d *DropoutCorrectVFR) correctField(id ids.FieldID) map[int][]uint16 {
	lines := make(map[int][]uint16)

	desc, ok := d.Source.GetDescriptor(id)
	if !ok {
		return lines
	}
	params := d.Source.Parameters()
	colourBurstEnd, activeVideoEnd := boundaries(params)

	regions := applyDecisions(id, d.Source.GetDropoutHints(id), d.decisions)
	regions = extend(regions, d.config.OvercorrectExtension, desc.Width)

	var split []vfr.DropoutRegion
	for _, r := range regions {
		split = append(split, splitRegion(r, colourBurstEnd, activeVideoEnd)...)
	}

	for _, r := range split {
		line := r.Line
		data, ok := lines[line]
		if !ok {
			orig, ok := d.Source.GetLine(id, line)
			if !ok {
				continue
			}
			data = make([]uint16, len(orig))
			copy(data, orig)
		}

		repl, found := d.findReplacement(id, line, r, desc)
		if found {
			applyCorrection(data, r, repl)
		}
		lines[line] = data
	}
	return lines
}

func extend(regions []vfr.DropoutRegion, amount, width int) []vfr.DropoutRegion {
	if amount <= 0 {
		return regions
	}
	out := make([]vfr.DropoutRegion, len(regions))
	for i, r := range regions {
		if r.StartSample > amount {
			r.StartSample -= amount
		} else {
			r.StartSample = 0
		}
		if r.EndSample+amount < width {
			r.EndSample += amount
		} else {
			r.EndSample = width
		}
		out[i] = r
	}
	return out
}

func applyCorrection(line []uint16, r vfr.DropoutRegion, replacement []uint16) {
	for s := r.StartSample; s < r.EndSample && s < len(line); s++ {
		if s < len(replacement) {
			line[s] = replacement[s]
		}
	}
}

// findReplacement searches intrafield first, then interfield unless
// IntrafieldOnly is set, matching the
// original's search order and tie-break: ties in quality favor the
// first candidate found, i.e. smaller distance, above before below.
func (d *DropoutCorrectVFR) findReplacement(id ids.FieldID, line int, r vfr.DropoutRegion, desc vfr.FieldDescriptor) ([]uint16, bool) {
	best, bestQuality, found := d.searchIntrafield(id, line, r, desc)
	if found {
		return best, true
	}
	if d.config.IntrafieldOnly {
		return nil, false
	}
	return d.searchInterfield(id, line, r, desc, bestQuality)
}

func (d *DropoutCorrectVFR) searchIntrafield(id ids.FieldID, line int, r vfr.DropoutRegion, desc vfr.FieldDescriptor) ([]uint16, float64, bool) {
	bestQuality := -1.0
	var best []uint16
	found := false

	for dist := 1; dist <= d.config.MaxReplacementDistance; dist++ {
		if line-dist >= 0 {
			if data, ok := d.Source.GetLine(id, line-dist); ok {
				if q := lineQuality(data, r); q > bestQuality {
					bestQuality, best, found = q, data, true
				}
			}
		}
		if line+dist < desc.Height {
			if data, ok := d.Source.GetLine(id, line+dist); ok {
				if q := lineQuality(data, r); q > bestQuality {
					bestQuality, best, found = q, data, true
				}
			}
		}
	}
	return best, bestQuality, found
}

func (d *DropoutCorrectVFR) searchInterfield(id ids.FieldID, line int, r vfr.DropoutRegion, desc vfr.FieldDescriptor, _ float64) ([]uint16, bool) {
	var other ids.FieldID
	if d.config.ReverseFieldOrder {
		other = id + 1
	} else if id > 0 {
		other = id - 1
	} else {
		other = id + 1
	}
	otherDesc, ok := d.Source.GetDescriptor(other)
	if !ok || line >= otherDesc.Height {
		return nil, false
	}
	data, ok := d.Source.GetLine(other, line)
	if !ok {
		return nil, false
	}
	return data, true
}

// lineQuality scores a candidate replacement line by inverse variance
// over the dropout's sample span: a flatter signal in that span is
// more likely to be an undamaged continuation of the surrounding
// picture.
func lineQuality(data []uint16, r vfr.DropoutRegion) float64 {
	start, end := r.StartSample, r.EndSample
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if start >= end {
		return 0
	}
	span := make([]float64, end-start)
	for i, v := range data[start:end] {
		span[i] = float64(v)
	}
	variance := stat.Variance(span, nil)
	return 1.0 / (variance + 1.0)
}
