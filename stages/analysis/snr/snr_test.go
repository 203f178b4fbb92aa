package snr

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
	line0 := make([]uint16, 10)
	for i := range line0 {
		line0[i] = uint16(30000 + i)
	}
	fields := []vfr.MemoryField{
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 0, Width: 10, Height: 1, FrameNumber: 1},
			Data:       sample.NewField(10, 1, append([]uint16{}, line0...)),
		},
		{
			Descriptor: vfr.FieldDescriptor{FieldID: 1, Width: 10, Height: 1, FrameNumber: 1},
			Data:       sample.NewField(10, 1, append([]uint16{}, line0...)),
		},
	}
	return vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{
		System: videoparams.PAL, FieldWidth: 10, FieldHeight: 1,
		FirstActiveFieldLine: 0, LastActiveFieldLine: 0,
		ActiveVideoStart: 0, ActiveVideoEnd: 10,
		White16bIRE: 45000, Black16bIRE: 10000,
	}, fields, false, false, false)
}

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestTriggerComputesStats(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"mode": param.String("both")}); err != nil {
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
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if !stats[0].HasWhiteSNR || stats[0].WhiteSNR <= 0 {
		t.Fatalf("stats[0] white snr = %+v, want positive value", stats[0])
	}
	if !stats[0].HasBlackPSNR || stats[0].BlackPSNR <= 0 {
		t.Fatalf("stats[0] black psnr = %+v, want positive value", stats[0])
	}
}

func TestTriggerModeWhiteOnly(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"mode": param.String("white")}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ok, err := s.Trigger([]vfr.VFR{testSource()}, s.GetParameters(), observation.NewContext())
	if err != nil || !ok {
		t.Fatalf("Trigger: ok=%v err=%v", ok, err)
	}
	stats, _ := s.FrameStatsResult()
	if stats[0].HasBlackPSNR {
		t.Fatalf("mode=white should not compute black psnr: %+v", stats[0])
	}
	if !stats[0].HasWhiteSNR {
		t.Fatal("mode=white should compute white snr")
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
	if !strings.HasPrefix(string(raw), "frame_number,white_snr_db,black_psnr_db\n") {
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

// cancellingVFR requests cancellation of s when a line is read, so the
// cancel lands while Trigger is running.
type cancellingVFR struct {
	vfr.Wrapper
	s *Stage
}

func (c cancellingVFR) GetLine(id ids.FieldID, line int) ([]uint16, bool) {
	c.s.CancelTrigger()
	return c.Wrapper.GetLine(id, line)
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
