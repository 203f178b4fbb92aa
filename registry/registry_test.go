package registry

import (
	"testing"

	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

type fakeStage struct{}

func (fakeStage) TypeInfo() stage.NodeTypeInfo { return stage.NodeTypeInfo{Kind: stage.Source} }
func (fakeStage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	return nil, nil
}
func (fakeStage) ParameterDescriptors(format int, sourceType string) []param.Descriptor { return nil }
func (fakeStage) GetParameters() param.Map                                              { return nil }
func (fakeStage) SetParameters(m param.Map) error                                       { return nil }

func TestRegisterAndCreate(t *testing.T) {
	Register("registry_test.fake", func() stage.Stage { return fakeStage{} })
	if !Has("registry_test.fake") {
		t.Fatal("Has reports false for a just-registered stage")
	}
	s, err := Create("registry_test.fake")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.TypeInfo().Kind != stage.Source {
		t.Fatalf("Create returned a stage with Kind %v, want Source", s.TypeInfo().Kind)
	}
}

func TestCreateUnknownStageErrors(t *testing.T) {
	if _, err := Create("registry_test.does_not_exist"); err == nil {
		t.Fatal("expected error creating an unregistered stage")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("registry_test.dup", func() stage.Stage { return fakeStage{} })
	defer func() {
		if recover() == nil {
			t.Fatal("expected Register to panic on duplicate name")
		}
	}()
	Register("registry_test.dup", func() stage.Stage { return fakeStage{} })
}

func TestNamesIsSorted(t *testing.T) {
	Register("registry_test.zzz", func() stage.Stage { return fakeStage{} })
	Register("registry_test.aaa", func() stage.Stage { return fakeStage{} })
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}
}
