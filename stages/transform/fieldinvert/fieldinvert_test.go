package fieldinvert

import (
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

func TestRegistered(t *testing.T) {
	if !registry.Has(TypeName) {
		t.Fatalf("%s not registered", TypeName)
	}
}

func TestExecuteInvertsParity(t *testing.T) {
	top := vfr.ParityHint{IsFirstField: true}
	fields := []vfr.MemoryField{{Parity: &top}}
	src := vfr.NewMemory("src", vfr.Provenance{}, videoparams.Parameters{FieldWidth: 1, FieldHeight: 1}, fields, false, false, false)

	s := New()
	out, err := s.Execute([]vfr.VFR{src}, param.Map{}, observation.NewContext())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	hint, ok := out[0].GetFieldParityHint(ids.FieldID(0))
	if !ok {
		t.Fatal("expected a parity hint")
	}
	if hint.IsFirstField {
		t.Fatal("expected IsFirstField to be inverted to false")
	}
}
