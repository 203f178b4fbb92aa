package sourcealign

import (
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func testSource(n int) vfr.VFR {
	fields := make([]vfr.MemoryField, n)
	return vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{FieldWidth: 4, FieldHeight: 2}, fields, false, false, false)
}

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestExecuteShiftsIndices(t *testing.T) {
	s := New()
	if err := s.SetParameters(param.Map{"offset": param.Int(3)}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	out, err := s.Execute([]vfr.VFR{testSource(10)}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out[0].FieldCount() != 7 {
		t.Fatalf("FieldCount() = %d, want 7", out[0].FieldCount())
	}
	if out[0].HasField(ids.FieldID(7)) {
		t.Fatal("expected field 7 to be excluded after shifting by 3 from a 10-field source")
	}
}
