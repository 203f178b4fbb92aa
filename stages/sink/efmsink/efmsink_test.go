package efmsink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func testSource(withEFM bool) vfr.VFR {
	fields := []vfr.MemoryField{
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 0, Width: 1, Height: 1, FrameNumber: -1},
			Data:       sample.NewField(1, 1, []uint16{0}),
			EFM:        vfr.EFMSamples{Data: []byte{3, 4, 5}},
		},
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 1, Width: 1, Height: 1, FrameNumber: -1},
			Data:       sample.NewField(1, 1, []uint16{0}),
			EFM:        vfr.EFMSamples{Data: []byte{11}},
		},
	}
	return vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{System: videoparams.PAL, FieldWidth: 1, FieldHeight: 1}, fields, false, false, withEFM)
}

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestTriggerWritesRawEFM(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.efm")
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

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading exported efm file: %v", err)
	}
	want := []byte{3, 4, 5, 11}
	if len(raw) != len(want) {
		t.Fatalf("exported %d bytes, want %d", len(raw), len(want))
	}
	for i, v := range want {
		if raw[i] != v {
			t.Fatalf("byte %d = %d, want %d", i, raw[i], v)
		}
	}
	if s.TriggerStatus() != "Success: 4 t-values written" {
		t.Fatalf("TriggerStatus() = %q", s.TriggerStatus())
	}
}

func TestTriggerNoEFMErrors(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(filepath.Join(t.TempDir(), "out.efm"))}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger([]vfr.VFR{testSource(false)}, s.GetParameters(), observation.NewContext())
	if ok || err == nil {
		t.Fatalf("Trigger with no EFM = (%v,%v), want (false, error)", ok, err)
	}
}

// cancellingVFR requests cancellation of s when a field's EFM samples
// are read, so the cancel lands while Trigger is running.
type cancellingVFR struct {
	vfr.Wrapper
	s *Stage
}

func (c cancellingVFR) GetEFMSamples(id ids.FieldID) (vfr.EFMSamples, bool) {
	c.s.CancelTrigger()
	return c.Wrapper.GetEFMSamples(id)
}

func TestTriggerRespectsCancellation(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.efm")
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
