package audiosink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func testSource(withAudio bool) vfr.VFR {
	fields := []vfr.MemoryField{
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 0, Width: 1, Height: 1, FrameNumber: -1},
			Data:       sample.NewField(1, 1, []uint16{0}),
			Audio:      vfr.AudioSamples{Data: []int16{1, 2, 3, 4}},
		},
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 1, Width: 1, Height: 1, FrameNumber: -1},
			Data:       sample.NewField(1, 1, []uint16{0}),
			Audio:      vfr.AudioSamples{Data: []int16{5, 6}},
		},
	}
	return vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{System: videoparams.PAL, FieldWidth: 1, FieldHeight: 1}, fields, false, withAudio, false)
}

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestTriggerWritesWAV(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.wav")
	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(outPath)}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger([]vfr.VFR{testSource(true)}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if !ok {
		t.Fatalf("Trigger ok=false, status=%q", s.TriggerStatus())
	}

	fh, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("opening exported wav: %v", err)
	}
	defer fh.Close()
	dec := wav.NewDecoder(fh)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding exported wav: %v", err)
	}
	want := []int{1, 2, 3, 4, 5, 6}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i, v := range want {
		if buf.Data[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], v)
		}
	}
}

func TestTriggerNoAudioErrors(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(filepath.Join(t.TempDir(), "out.wav"))}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger([]vfr.VFR{testSource(false)}, s.GetParameters(), observation.NewContext())
	if ok || err == nil {
		t.Fatalf("Trigger with no audio = (%v,%v), want (false, error)", ok, err)
	}
}

func TestTriggerNoInputsErrors(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(filepath.Join(t.TempDir(), "out.wav"))}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger(nil, s.GetParameters(), observation.NewContext())
	if ok || err == nil {
		t.Fatalf("Trigger with no inputs = (%v,%v), want (false, error)", ok, err)
	}
}

// cancellingVFR requests cancellation of s when a field's audio samples
// are read, so the cancel lands while Trigger is running.
type cancellingVFR struct {
	vfr.Wrapper
	s *Stage
}

func (c cancellingVFR) GetAudioSamples(id ids.FieldID) (vfr.AudioSamples, bool) {
	c.s.CancelTrigger()
	return c.Wrapper.GetAudioSamples(id)
}

func TestTriggerRespectsCancellation(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.wav")
	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(outPath)}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	src := cancellingVFR{Wrapper: vfr.Wrapper{Source: testSource(true)}, s: s}
	ok, err := s.Trigger([]vfr.VFR{src}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if ok {
		t.Fatal("Trigger cancelled mid-run should return ok=false")
	}
	if s.TriggerStatus() != "Cancelled by user" {
		t.Fatalf("TriggerStatus() = %q, want cancellation message", s.TriggerStatus())
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Fatalf("output file %s still exists after cancellation", outPath)
	}
}
