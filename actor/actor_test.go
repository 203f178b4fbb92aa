package actor

import (
	"testing"
	"time"

	"github.com/tbcorc/orc/dag"
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/preview"
	"github.com/tbcorc/orc/sample"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// fakeSource is a minimal stage.Stage double producing n fields paired
// two-by-two into frames (field 2k is Top/frame k, field 2k+1 is
// Bottom/frame k), enough to exercise frame/split preview math without
// any concrete production stage.
type fakeSource struct {
	info stage.NodeTypeInfo
	n    int
}

func (f *fakeSource) TypeInfo() stage.NodeTypeInfo { return f.info }
func (f *fakeSource) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	fields := make([]vfr.MemoryField, f.n)
	params2 := videoparams.Parameters{
		FieldWidth: 8, FieldHeight: 4,
		ActiveVideoStart: 1, ActiveVideoEnd: 7,
		FirstActiveFieldLine: 0, LastActiveFieldLine: 3,
		Black16bIRE: 10000, White16bIRE: 40000,
	}
	for i := range fields {
		buf := make([]uint16, 8*4)
		for j := range buf {
			buf[j] = 20000
		}
		parity := vfr.Top
		if i%2 == 1 {
			parity = vfr.Bottom
		}
		fields[i] = vfr.MemoryField{
			Descriptor: vfr.FieldDescriptor{
				FieldID:     ids.FieldID(i),
				Width:       8,
				Height:      4,
				Parity:      parity,
				FrameNumber: i / 2,
			},
			Data: sample.NewField(8, 4, buf),
		}
	}
	return []vfr.VFR{vfr.NewMemory("src", vfr.Provenance{}, params2, fields, false, false, false)}, nil
}
func (f *fakeSource) ParameterDescriptors(format int, sourceType string) []param.Descriptor { return nil }
func (f *fakeSource) GetParameters() param.Map                                              { return nil }
func (f *fakeSource) SetParameters(m param.Map) error                                       { return nil }

func newSourceDAG(n int) *dag.DAG {
	src := &fakeSource{info: stage.NodeTypeInfo{Kind: stage.Source, MinOutputs: 0, MaxOutputs: 3}, n: n}
	return dag.New([]dag.Node{{NodeID: "SOURCE_0", Stage: src}}, []ids.NodeID{"SOURCE_0"})
}

// fakeTrigger is a stage.Stage + stage.Triggerable double whose Trigger
// loops field-by-field, polling IsCancelled, for exercising
// TriggerStage/CancelTrigger.
type fakeTrigger struct {
	stage.BaseTriggerable
	info    stage.NodeTypeInfo
	fields  int
	delay   time.Duration
	started chan struct{}
}

func (f *fakeTrigger) TypeInfo() stage.NodeTypeInfo { return f.info }
func (f *fakeTrigger) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	return nil, nil
}
func (f *fakeTrigger) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return nil
}
func (f *fakeTrigger) GetParameters() param.Map        { return nil }
func (f *fakeTrigger) SetParameters(m param.Map) error { return nil }

func (f *fakeTrigger) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	f.Reset()
	if f.started != nil {
		close(f.started)
	}
	for i := 0; i < f.fields; i++ {
		if f.IsCancelled() {
			f.SetStatus(stage.CancelledStatus)
			return false, nil
		}
		f.ReportProgress(uint64(i), uint64(f.fields), "exporting")
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
	}
	f.SetStatus("done")
	return true, nil
}

func newTriggerDAG(fields int, delay time.Duration) (*dag.DAG, *fakeTrigger) {
	src := &fakeSource{info: stage.NodeTypeInfo{Kind: stage.Source, MinOutputs: 0, MaxOutputs: 1}, n: fields}
	trig := &fakeTrigger{
		info:    stage.NodeTypeInfo{Kind: stage.Sink, MinInputs: 1, MaxInputs: 1},
		fields:  fields,
		delay:   delay,
		started: make(chan struct{}),
	}
	d := dag.New([]dag.Node{
		{NodeID: "src", Stage: src},
		{NodeID: "sink", Stage: trig, InputNodeIDs: []ids.NodeID{"src"}, InputIndices: []int{0}},
	}, []ids.NodeID{"sink"})
	return d, trig
}

func waitEvent(t *testing.T, c *Coordinator, id RequestID) Event {
	t.Helper()
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				t.Fatal("event channel closed before expected event arrived")
			}
			if ev.RequestID() == id {
				return ev
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestRenderPreviewField(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.RenderPreview("SOURCE_0", preview.Field, 0, "")
	ev := waitEvent(t, c, id)
	ready, ok := ev.(PreviewReadyEvent)
	if !ok {
		t.Fatalf("got %T, want PreviewReadyEvent", ev)
	}
	if len(ready.Image) == 0 {
		t.Fatal("expected non-empty PNG bytes")
	}
	if ready.Metadata["width"] == "" || ready.Metadata["height"] == "" {
		t.Fatal("expected width/height metadata")
	}
}

func TestRenderPreviewFrameWeavesInParityOrder(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.RenderPreview("SOURCE_0", preview.Frame, 0, "")
	ev := waitEvent(t, c, id)
	if _, ok := ev.(PreviewReadyEvent); !ok {
		t.Fatalf("got %T, want PreviewReadyEvent", ev)
	}
}

func TestGetAvailableOutputs(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.GetAvailableOutputs("SOURCE_0")
	ev := waitEvent(t, c, id)
	ready, ok := ev.(AvailableOutputsReadyEvent)
	if !ok {
		t.Fatalf("got %T, want AvailableOutputsReadyEvent", ev)
	}
	if len(ready.Outputs) != 9 { // MaxOutputs=3 * 3 output types
		t.Fatalf("len(Outputs) = %d, want 9", len(ready.Outputs))
	}
}

func TestGetLineSamples(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.GetLineSamples("SOURCE_0", preview.Field, 0, 0, 0, 4)
	ev := waitEvent(t, c, id)
	ready, ok := ev.(LineSamplesReadyEvent)
	if !ok {
		t.Fatalf("got %T, want LineSamplesReadyEvent", ev)
	}
	if len(ready.Samples) != 8 {
		t.Fatalf("len(Samples) = %d, want 8", len(ready.Samples))
	}
}

func TestUpdateDAG(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.UpdateDAG(newSourceDAG(8))
	ev := waitEvent(t, c, id)
	if _, ok := ev.(DAGUpdatedEvent); !ok {
		t.Fatalf("got %T, want DAGUpdatedEvent", ev)
	}
}

func TestUpdateDAGRejectsNil(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.UpdateDAG(nil)
	ev := waitEvent(t, c, id)
	if _, ok := ev.(ErrorEvent); !ok {
		t.Fatalf("got %T, want ErrorEvent", ev)
	}
}

func TestGetFrameFieldsSyncQuery(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	ff := c.GetFrameFields("SOURCE_0", 0)
	if !ff.Found {
		t.Fatal("expected to find frame 0's field pair")
	}
	if ff.First != 0 || ff.Second != 1 {
		t.Fatalf("FrameFields = %+v, want First=0 Second=1 (both Top/Bottom in capture order)", ff)
	}
}

func TestMapImageToFieldSyncQuery(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	m := c.MapImageToField("SOURCE_0", preview.Field, 0, 2, 4)
	if !m.Found {
		t.Fatal("expected a successful mapping")
	}
	if m.Field != 0 {
		t.Fatalf("Field = %v, want 0", m.Field)
	}
}

// TestTriggerStageCompletes implements the non-cancelled half of spec
// scenario 6: triggering a sink runs to completion and reports success.
func TestTriggerStageCompletes(t *testing.T) {
	d, _ := newTriggerDAG(5, 0)
	c, err := New(d, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.TriggerStage("sink")
	ev := waitEvent(t, c, id)
	complete, ok := ev.(TriggerCompleteEvent)
	if !ok {
		t.Fatalf("got %T, want TriggerCompleteEvent", ev)
	}
	if !complete.Success || complete.Status != "done" {
		t.Fatalf("TriggerCompleteEvent = %+v, want Success=true Status=done", complete)
	}
}

// TestCancelTriggerBypassesQueue implements spec scenario 6: submitting
// CancelTrigger while a TriggerStage is in progress aborts it with
// Success=false and a status beginning with "Cancelled".
func TestCancelTriggerBypassesQueue(t *testing.T) {
	d, trig := newTriggerDAG(10000, time.Millisecond)
	c, err := New(d, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.TriggerStage("sink")
	select {
	case <-trig.started:
	case <-time.After(5 * time.Second):
		t.Fatal("trigger never started")
	}
	c.CancelTrigger()

	ev := waitEvent(t, c, id)
	complete, ok := ev.(TriggerCompleteEvent)
	if !ok {
		t.Fatalf("got %T, want TriggerCompleteEvent", ev)
	}
	if complete.Success {
		t.Fatal("expected Success=false after cancellation")
	}
	if complete.Status != stage.CancelledStatus {
		t.Fatalf("Status = %q, want %q", complete.Status, stage.CancelledStatus)
	}
}

func TestShutdownDrainsQueueAndClosesEvents(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id := c.GetAvailableOutputs("SOURCE_0")
	c.Shutdown()

	// the request enqueued before Shutdown must have been processed
	// (and its event delivered) before the events channel closes.
	sawIt := false
	for ev := range c.Events() {
		if ev.RequestID() == id {
			sawIt = true
		}
	}
	if !sawIt {
		t.Fatal("expected the pre-shutdown request's event to be delivered before the channel closed")
	}
}

func TestHandleGetDropoutDataNotAnAnalysisSink(t *testing.T) {
	c, err := New(newSourceDAG(4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Shutdown()

	id := c.GetDropoutData("SOURCE_0")
	ev := waitEvent(t, c, id)
	if _, ok := ev.(ErrorEvent); !ok {
		t.Fatalf("got %T, want ErrorEvent (source is not an analysis sink)", ev)
	}
}
