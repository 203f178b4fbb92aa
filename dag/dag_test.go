package dag

import (
	"errors"
	"testing"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// fakeStage is a minimal stage.Stage used to exercise the DAG executor
// without depending on any concrete stage implementation.
type fakeStage struct {
	info     stage.NodeTypeInfo
	execFn   func(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error)
	execCount int
}

func (f *fakeStage) TypeInfo() stage.NodeTypeInfo { return f.info }
func (f *fakeStage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	f.execCount++
	return f.execFn(inputs, params, ctx)
}
func (f *fakeStage) ParameterDescriptors(format int, sourceType string) []param.Descriptor { return nil }
func (f *fakeStage) GetParameters() param.Map                                              { return nil }
func (f *fakeStage) SetParameters(m param.Map) error                                       { return nil }

func sourceStage(n int) *fakeStage {
	return &fakeStage{
		info: stage.NodeTypeInfo{Kind: stage.Source, MinOutputs: 0, MaxOutputs: 1},
		execFn: func(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
			if n == 0 {
				return nil, nil
			}
			fields := make([]vfr.MemoryField, n)
			return []vfr.VFR{vfr.NewMemory("src", vfr.Provenance{StageName: "fake-source"}, videoparams.Parameters{FieldWidth: 1, FieldHeight: 1}, fields, false, false, false)}, nil
		},
	}
}

func passthroughTransform() *fakeStage {
	return &fakeStage{
		info: stage.NodeTypeInfo{Kind: stage.Transform, MinInputs: 1, MaxInputs: 1, MinOutputs: 1, MaxOutputs: 1},
		execFn: func(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
			if len(inputs) == 0 {
				return nil, nil
			}
			return []vfr.VFR{inputs[0]}, nil
		},
	}
}

func TestExecuteToNodeEmptySource(t *testing.T) {
	src := sourceStage(0)
	d := New([]Node{{NodeID: "SOURCE_0", Stage: src}}, []ids.NodeID{"SOURCE_0"})
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	res, err := NewExecutor(d).ExecuteToNode("SOURCE_0")
	if err != nil {
		t.Fatalf("ExecuteToNode: %v", err)
	}
	if len(res.Outputs["SOURCE_0"]) != 0 {
		t.Fatalf("expected empty outputs for unconfigured source, got %d", len(res.Outputs["SOURCE_0"]))
	}
}

func TestExecuteToNodeSubsetOfReachable(t *testing.T) {
	src := sourceStage(10)
	unreached := sourceStage(10)
	tr := passthroughTransform()
	d := New([]Node{
		{NodeID: "SOURCE_0", Stage: src},
		{NodeID: "SOURCE_UNUSED", Stage: unreached},
		{NodeID: "transform_1", Stage: tr, InputNodeIDs: []ids.NodeID{"SOURCE_0"}, InputIndices: []int{0}},
	}, []ids.NodeID{"transform_1"})

	res, err := NewExecutor(d).ExecuteToNode("transform_1")
	if err != nil {
		t.Fatalf("ExecuteToNode: %v", err)
	}
	if _, ok := res.Outputs["SOURCE_UNUSED"]; ok {
		t.Fatal("executor visited a node not reachable from the target")
	}
	if _, ok := res.Outputs["transform_1"]; !ok {
		t.Fatal("target node missing from outputs")
	}
	if unreached.execCount != 0 {
		t.Fatalf("unreached source was executed %d times, want 0", unreached.execCount)
	}
	if src.execCount != 1 {
		t.Fatalf("source executed %d times, want exactly 1", src.execCount)
	}
}

func TestExecuteToNodeErrorAborts(t *testing.T) {
	failing := &fakeStage{
		info: stage.NodeTypeInfo{Kind: stage.Source},
		execFn: func(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
			return nil, errors.New("boom")
		},
	}
	d := New([]Node{{NodeID: "SOURCE_0", Stage: failing}}, []ids.NodeID{"SOURCE_0"})
	_, err := NewExecutor(d).ExecuteToNode("SOURCE_0")
	if err == nil {
		t.Fatal("expected error to propagate from failing stage")
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	tr1 := passthroughTransform()
	tr2 := passthroughTransform()
	d := New([]Node{
		{NodeID: "a", Stage: tr1, InputNodeIDs: []ids.NodeID{"b"}, InputIndices: []int{0}},
		{NodeID: "b", Stage: tr2, InputNodeIDs: []ids.NodeID{"a"}, InputIndices: []int{0}},
	}, nil)
	if err := d.Validate(); err == nil {
		t.Fatal("Validate did not detect a cycle")
	}
}

func TestValidateDetectsUnboundInput(t *testing.T) {
	tr := passthroughTransform()
	d := New([]Node{
		{NodeID: "a", Stage: tr, InputNodeIDs: []ids.NodeID{"missing"}, InputIndices: []int{0}},
	}, nil)
	if err := d.Validate(); err == nil {
		t.Fatal("Validate did not detect unbound input")
	}
}

func TestNodeExecutedAtMostOnce(t *testing.T) {
	src := sourceStage(5)
	tr := passthroughTransform()
	// Diamond: transform_1 and transform_2 both read SOURCE_0;
	// sink node depends on both so SOURCE_0 must not double-execute.
	sinkTr := &fakeStage{
		info: stage.NodeTypeInfo{Kind: stage.Transform, MinInputs: 2, MaxInputs: 2, MinOutputs: 1, MaxOutputs: 1},
		execFn: func(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
			return []vfr.VFR{inputs[0]}, nil
		},
	}
	d := New([]Node{
		{NodeID: "SOURCE_0", Stage: src},
		{NodeID: "t1", Stage: tr, InputNodeIDs: []ids.NodeID{"SOURCE_0"}, InputIndices: []int{0}},
		{NodeID: "t2", Stage: tr, InputNodeIDs: []ids.NodeID{"SOURCE_0"}, InputIndices: []int{0}},
		{NodeID: "sink", Stage: sinkTr, InputNodeIDs: []ids.NodeID{"t1", "t2"}, InputIndices: []int{0, 0}},
	}, []ids.NodeID{"sink"})

	if _, err := NewExecutor(d).ExecuteToNode("sink"); err != nil {
		t.Fatalf("ExecuteToNode: %v", err)
	}
	if src.execCount != 1 {
		t.Fatalf("SOURCE_0 executed %d times, want exactly 1", src.execCount)
	}
}
