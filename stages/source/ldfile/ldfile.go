/*
NAME
  ldfile.go

DESCRIPTION
  ldfile.go implements the "ld_file_source" source stage: it loads a
  raw .tbc sample file plus a sidecar .tbc.json field-metadata file
  produced by ld-decode, and optionally an external PCM (WAV/FLAC)
  audio track and an EFM t-value stream, and exposes them as a VFR.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ldfile registers the "ld_file_source" source stage, which
// loads a .tbc sample file and its sidecar metadata into a VFR.
package ldfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/tbcio"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// TypeName is the registered stage name.
const TypeName = "ld_file_source"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// sidecar is the .tbc.json field-metadata file format read alongside a
// .tbc sample file: per-field dropout hints, parity/phase tags, and
// side-channel sample counts, plus the VideoParameters that apply
// uniformly across the file.
type sidecar struct {
	Parameters videoparams.Parameters `json:"parameters"`
	Fields     []fieldMeta            `json:"fields"`
}

type fieldMeta struct {
	Dropouts   []vfr.DropoutRegion `json:"dropouts,omitempty"`
	Parity     *vfr.ParityHint     `json:"parity,omitempty"`
	Phase      *vfr.PhaseHint      `json:"phase,omitempty"`
	AudioCount int                 `json:"audioCount,omitempty"`
	EFMCount   int                 `json:"efmCount,omitempty"`
}

// Stage implements stage.Stage, loading and caching a FileVFR keyed by
// input_path so repeated Execute calls with an unchanged path avoid
// reopening the file.
type Stage struct {
	mu         sync.Mutex
	params     param.Map
	cached     *FileVFR
	cachedPath string
}

// New returns an unconfigured ld_file_source stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Source,
		TypeName:    TypeName,
		DisplayName: "LD File Source",
		MinInputs:   0, MaxInputs: 0,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "input_path", Type: param.TypeString, Default: param.String("")},
		{Name: "db_path", Type: param.TypeString, Default: param.String("")},
		{Name: "pcm_path", Type: param.TypeString, Default: param.String("")},
		{Name: "efm_path", Type: param.TypeString, Default: param.String("")},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("ld_file_source: %w", err)
	}
	s.params = m
	return nil
}

// Execute loads the configured .tbc file. With no input_path set, it
// returns no output — a placeholder node in an otherwise-valid DAG.
func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) != 0 {
		return nil, fmt.Errorf("ld_file_source: source stage takes no inputs")
	}
	inputPath := params["input_path"].S
	if inputPath == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.cachedPath == inputPath {
		return []vfr.VFR{s.cached}, nil
	}

	dbPath := inputPath + ".json"
	if v, ok := params["db_path"]; ok && v.S != "" {
		dbPath = v.S
	}
	pcmPath := params["pcm_path"].S
	efmPath := params["efm_path"].S

	f, err := Load(inputPath, dbPath, pcmPath, efmPath)
	if err != nil {
		return nil, fmt.Errorf("ld_file_source: failed to load %q: %w", inputPath, err)
	}
	s.cached = f
	s.cachedPath = inputPath
	return []vfr.VFR{f}, nil
}

// FileVFR is a leaf VFR backed by a .tbc sample file read through
// tbcio, with its metadata drawn from a parsed sidecar and optional
// in-memory audio/EFM side channels.
type FileVFR struct {
	id     ids.ArtifactID
	meta   sidecar
	reader *tbcio.Reader

	audio        []int16 // L,R interleaved
	efm          []byte
	audioOffsets []int // cumulative stereo-frame offset per field, len(Fields)+1
	efmOffsets   []int // cumulative t-value offset per field, len(Fields)+1
}

// Load opens tbcPath and parses sidecarPath, optionally loading an
// external audio track (WAV or FLAC, chosen by extension) and an EFM
// t-value stream.
func Load(tbcPath, sidecarPath, pcmPath, efmPath string) (*FileVFR, error) {
	raw, err := os.ReadFile(sidecarPath)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}
	var m sidecar
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing sidecar: %w", err)
	}

	r, err := tbcio.NewReader(tbcPath, tbcio.DefaultBufferSize)
	if err != nil {
		return nil, fmt.Errorf("opening tbc file: %w", err)
	}

	f := &FileVFR{id: ids.ArtifactID(tbcPath), meta: m, reader: r}

	if pcmPath != "" {
		f.audio, err = readAudio(pcmPath)
		if err != nil {
			return nil, fmt.Errorf("reading pcm_path: %w", err)
		}
	}
	if efmPath != "" {
		f.efm, err = os.ReadFile(efmPath)
		if err != nil {
			return nil, fmt.Errorf("reading efm_path: %w", err)
		}
	}

	f.audioOffsets = make([]int, len(m.Fields)+1)
	f.efmOffsets = make([]int, len(m.Fields)+1)
	for i, fm := range m.Fields {
		f.audioOffsets[i+1] = f.audioOffsets[i] + fm.AudioCount
		f.efmOffsets[i+1] = f.efmOffsets[i] + fm.EFMCount
	}
	return f, nil
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

func (f *FileVFR) ID() ids.ArtifactID          { return f.id }
func (f *FileVFR) Provenance() vfr.Provenance  { return vfr.Provenance{StageName: TypeName} }
func (f *FileVFR) Parameters() videoparams.Parameters { return f.meta.Parameters }

func (f *FileVFR) FieldRange() ids.FieldIDRange {
	return ids.FieldIDRange{Start: 0, End: ids.FieldID(len(f.meta.Fields))}
}

func (f *FileVFR) FieldCount() int { return len(f.meta.Fields) }

func (f *FileVFR) HasField(id ids.FieldID) bool {
	return id.Valid() && int(id) < len(f.meta.Fields)
}

func (f *FileVFR) GetDescriptor(id ids.FieldID) (vfr.FieldDescriptor, bool) {
	if !f.HasField(id) {
		return vfr.FieldDescriptor{}, false
	}
	return vfr.FieldDescriptor{
		FieldID:     id,
		Width:       f.meta.Parameters.FieldWidth,
		Height:      f.meta.Parameters.FieldHeight,
		Format:      f.meta.Parameters.System,
		FrameNumber: -1,
	}, true
}

func (f *FileVFR) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	if !f.HasField(id) {
		return nil, false
	}
	width, height := f.meta.Parameters.FieldWidth, f.meta.Parameters.FieldHeight
	if line < 0 || line >= height {
		return nil, false
	}
	sampleOffset := int(id)*width*height + line*width
	data, err := f.reader.ReadAt(uint64(sampleOffset)*2, width)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f *FileVFR) GetField(id ids.FieldID) (sample.Field, bool) {
	if !f.HasField(id) {
		return sample.Field{}, false
	}
	width, height := f.meta.Parameters.FieldWidth, f.meta.Parameters.FieldHeight
	sampleOffset := int(id) * width * height
	data, err := f.reader.ReadAt(uint64(sampleOffset)*2, width*height)
	if err != nil {
		return sample.Field{}, false
	}
	return sample.NewField(width, height, data), true
}

func (f *FileVFR) HasSeparateChannels() bool { return false }

func (f *FileVFR) GetFieldLuma(id ids.FieldID) (sample.Field, bool)   { return sample.Field{}, false }
func (f *FileVFR) GetFieldChroma(id ids.FieldID) (sample.Field, bool) { return sample.Field{}, false }
func (f *FileVFR) GetLineLuma(id ids.FieldID, line int) ([]uint16, bool) {
	return nil, false
}
func (f *FileVFR) GetLineChroma(id ids.FieldID, line int) ([]uint16, bool) {
	return nil, false
}

func (f *FileVFR) GetDropoutHints(id ids.FieldID) []vfr.DropoutRegion {
	if !f.HasField(id) {
		return nil
	}
	return f.meta.Fields[id].Dropouts
}

func (f *FileVFR) GetFieldParityHint(id ids.FieldID) (vfr.ParityHint, bool) {
	if !f.HasField(id) || f.meta.Fields[id].Parity == nil {
		return vfr.ParityHint{}, false
	}
	return *f.meta.Fields[id].Parity, true
}

func (f *FileVFR) GetFieldPhaseHint(id ids.FieldID) (vfr.PhaseHint, bool) {
	if !f.HasField(id) || f.meta.Fields[id].Phase == nil {
		return vfr.PhaseHint{}, false
	}
	return *f.meta.Fields[id].Phase, true
}

func (f *FileVFR) HasAudio() bool { return len(f.audio) > 0 }

func (f *FileVFR) GetAudioSampleCount(id ids.FieldID) int {
	if !f.HasField(id) {
		return 0
	}
	return f.meta.Fields[id].AudioCount
}

func (f *FileVFR) GetAudioSamples(id ids.FieldID) (vfr.AudioSamples, bool) {
	if !f.HasField(id) || !f.HasAudio() {
		return vfr.AudioSamples{}, false
	}
	start, end := f.audioOffsets[id]*2, f.audioOffsets[id+1]*2
	if end > len(f.audio) {
		end = len(f.audio)
	}
	if start >= end {
		return vfr.AudioSamples{}, true
	}
	return vfr.AudioSamples{Data: f.audio[start:end]}, true
}

func (f *FileVFR) HasEFM() bool { return len(f.efm) > 0 }

func (f *FileVFR) GetEFMSampleCount(id ids.FieldID) int {
	if !f.HasField(id) {
		return 0
	}
	return f.meta.Fields[id].EFMCount
}

func (f *FileVFR) GetEFMSamples(id ids.FieldID) (vfr.EFMSamples, bool) {
	if !f.HasField(id) || !f.HasEFM() {
		return vfr.EFMSamples{}, false
	}
	start, end := f.efmOffsets[id], f.efmOffsets[id+1]
	if end > len(f.efm) {
		end = len(f.efm)
	}
	if start >= end {
		return vfr.EFMSamples{}, true
	}
	return vfr.EFMSamples{Data: f.efm[start:end]}, true
}
