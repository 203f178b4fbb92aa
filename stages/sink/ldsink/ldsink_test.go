package ldsink

import (
	"database/sql"
	"encoding/binary"
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

const width, height = 2, 2

func desc(id int, frame int) vfr.FieldDescriptor {
	return vfr.FieldDescriptor{FieldID: ids.FieldID(id), Width: width, Height: height, FrameNumber: frame}
}

func testSource() vfr.VFR {
	first := true
	second := false
	fields := []vfr.MemoryField{
		{
			Descriptor: desc(0, 0),
			Data:       sample.NewField(width, height, []uint16{1, 2, 3, 4}),
			Parity:     &vfr.ParityHint{IsFirstField: first},
			Dropouts:   []vfr.DropoutRegion{{Line: 0, StartSample: 0, EndSample: 1}},
		},
		{
			Descriptor: desc(1, 0),
			Data:       sample.NewField(width, height, []uint16{5, 6, 7, 8}),
			Parity:     &vfr.ParityHint{IsFirstField: second},
		},
	}
	return vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{
		System: videoparams.PAL, FieldWidth: width, FieldHeight: height,
		Black16bIRE: 100, White16bIRE: 60000,
	}, fields, false, false, false)
}

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestExecuteIsNoOp(t *testing.T) {
	s := New()
	out, err := s.Execute([]vfr.VFR{testSource()}, param.Map{"output_path": param.String("ignored")}, observation.NewContext())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != nil {
		t.Fatalf("Execute() = %v, want nil (sinks export only on Trigger)", out)
	}
}

func TestTriggerWritesTBCAndMetadata(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out")

	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(outPath)}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	ctx := observation.NewContext()
	ok, err := s.Trigger([]vfr.VFR{testSource()}, s.GetParameters(), ctx)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if !ok {
		t.Fatalf("Trigger returned ok=false, status=%q", s.TriggerStatus())
	}

	tbcPath := outPath + ".tbc"
	raw, err := os.ReadFile(tbcPath)
	if err != nil {
		t.Fatalf("reading exported tbc: %v", err)
	}
	var samples []uint16
	for i := 0; i+1 < len(raw); i += 2 {
		samples = append(samples, binary.LittleEndian.Uint16(raw[i:i+2]))
	}
	want := []uint16{1, 2, 3, 4, 5, 6, 7, 8}
	if len(samples) != len(want) {
		t.Fatalf("exported %d samples, want %d", len(samples), len(want))
	}
	for i, v := range want {
		if samples[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], v)
		}
	}

	db, err := sql.Open("sqlite", tbcPath+".db")
	if err != nil {
		t.Fatalf("opening metadata db: %v", err)
	}
	defer db.Close()

	var fieldCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM fields`).Scan(&fieldCount); err != nil {
		t.Fatalf("counting fields: %v", err)
	}
	if fieldCount != 2 {
		t.Fatalf("fields row count = %d, want 2", fieldCount)
	}

	var isFirst bool
	if err := db.QueryRow(`SELECT is_first_field FROM fields WHERE id = 0`).Scan(&isFirst); err != nil {
		t.Fatalf("reading is_first_field: %v", err)
	}
	if !isFirst {
		t.Fatal("field 0 is_first_field = false, want true")
	}

	var dropoutCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM dropouts`).Scan(&dropoutCount); err != nil {
		t.Fatalf("counting dropouts: %v", err)
	}
	if dropoutCount != 1 {
		t.Fatalf("dropouts row count = %d, want 1", dropoutCount)
	}

	v, ok := ctx.Get(ids.FieldID(0), observation.NSExport, "seq_no")
	if !ok {
		t.Fatal("expected export/seq_no observation for field 0")
	}
	if got, ok := v.AsInt64(); !ok || got != 1 {
		t.Fatalf("export/seq_no for field 0 = (%d,%v), want (1,true)", got, ok)
	}
}

func TestTriggerMissingOutputPathErrors(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{}); err == nil {
		t.Fatal("SetParameters with empty required output_path should fail validation")
	}
}

func TestTriggerNoInputsErrors(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(filepath.Join(t.TempDir(), "out"))}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
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
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out")

	s := New()
	if err := s.SetParameters(param.Map{"output_path": param.String(outPath)}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	src := cancellingVFR{Wrapper: vfr.Wrapper{Source: testSource()}, s: s}
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

	tbcPath := outPath + ".tbc"
	if _, err := os.Stat(tbcPath); !os.IsNotExist(err) {
		t.Fatalf("tbc file %s still exists after cancellation", tbcPath)
	}
	if _, err := os.Stat(tbcPath + ".db"); !os.IsNotExist(err) {
		t.Fatalf("metadata db %s still exists after cancellation", tbcPath+".db")
	}
}
