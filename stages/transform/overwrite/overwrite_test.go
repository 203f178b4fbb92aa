package overwrite

import (
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestExecuteOverwritesRegion(t *testing.T) {
	buf := make([]uint16, 4*3)
	for i := range buf {
		buf[i] = 100
	}
	field := sample.NewField(4, 3, buf)
	fields := []vfr.MemoryField{{Data: field}}
	src := vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{FieldWidth: 4, FieldHeight: 3}, fields, false, false, false)

	s := New()
	if err := s.SetParameters(param.Map{
		"first_line": param.Int(1), "last_line": param.Int(1),
		"first_sample": param.Int(0), "last_sample": param.Int(1),
		"value": param.Int(0),
	}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	out, err := s.Execute([]vfr.VFR{src}, s.GetParameters(), observation.NewContext())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	f, ok := out[0].GetField(ids.FieldID(0))
	if !ok {
		t.Fatal("expected field 0 to be present")
	}
	line := f.Line(1)
	if line[0] != 0 || line[1] != 0 || line[2] != 100 {
		t.Fatalf("line(1) = %v, want [0 0 100 100]", line)
	}
	other := f.Line(0)
	if other[0] != 100 {
		t.Fatal("expected line 0 to be unaffected")
	}
}
