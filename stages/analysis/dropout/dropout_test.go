package dropout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func testSource() vfr.VFR {
	fields := []vfr.MemoryField{
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 0, Width: 10, Height: 1, FrameNumber: 1},
			Data:       sample.NewField(10, 1, make([]uint16, 10)),
			Dropouts:   []vfr.DropoutRegion{{Line: 0, StartSample: 1, EndSample: 4}},
		},
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 1, Width: 10, Height: 1, FrameNumber: 1},
			Data:       sample.NewField(10, 1, make([]uint16, 10)),
			Dropouts:   []vfr.DropoutRegion{{Line: 0, StartSample: 5, EndSample: 6}},
		},
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 2, Width: 10, Height: 1, FrameNumber: 2},
			Data:       sample.NewField(10, 1, make([]uint16, 10)),
		},
	}
	return vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{
		System: videoparams.PAL, FieldWidth: 10, FieldHeight: 1,
		FirstActiveFieldLine: 0, LastActiveFieldLine: 0,
		ActiveVideoStart: 0, ActiveVideoEnd: 10,
	}, fields, false, false, false)
}

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestTriggerComputesPerFrameTotals(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"mode": param.String("full")}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger([]vfr.VFR{testSource()}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if !ok {
		t.Fatalf("Trigger ok=false, status=%q", s.TriggerStatus())
	}
	stats, hasResults := s.FrameStatsResult()
	if !hasResults {
		t.Fatal("expected results after successful Trigger")
	}
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2 (frames 1 and 2, fieldsPerBin=1)", len(stats))
	}
	if stats[0].TotalDropoutLength != 4 || stats[0].TotalDropoutCount != 2 {
		t.Fatalf("frame 1 (fields 0 and 1) = %+v, want length 4 count 2", stats[0])
	}
	if stats[1].HasData {
		t.Fatalf("frame 2 has no dropouts, HasData should be false: %+v", stats[1])
	}
}

func TestTriggerWritesCSVWhenConfigured(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.csv")
	s := New()
	if err := s.SetParameters(param.Map{
		"write_csv":   param.Bool(true),
		"output_path": param.String(outPath),
	}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger([]vfr.VFR{testSource()}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if !ok {
		t.Fatalf("Trigger ok=false, status=%q", s.TriggerStatus())
	}
	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if !strings.HasPrefix(string(raw), "frame_number,total_dropout_length_samples,total_dropout_count\n") {
		t.Fatalf("csv header wrong: %q", raw)
	}
}

func TestTriggerNoInputsErrors(t *testing.T) {
	s := New()
	ok, err := s.Trigger(nil, s.GetParameters(), observation.NewContext())
	if ok || err == nil {
		t.Fatalf("Trigger with no inputs = (%v,%v), want (false, error)", ok, err)
	}
}

// cancellingVFR requests cancellation of s when a field's dropout hints
// are read, so the cancel lands while Trigger is running.
type cancellingVFR struct {
	vfr.Wrapper
	s *Stage
}

func (c cancellingVFR) GetDropoutHints(id ids.FieldID) []vfr.DropoutRegion {
	c.s.CancelTrigger()
	return c.Wrapper.GetDropoutHints(id)
}

func TestTriggerRespectsCancellation(t *testing.T) {
	s := New()
	src := cancellingVFR{Wrapper: vfr.Wrapper{Source: testSource()}, s: s}
	ok, err := s.Trigger([]vfr.VFR{src}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if ok {
		t.Fatal("Trigger cancelled mid-run should return ok=false")
	}
}
