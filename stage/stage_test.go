package stage

import (
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{Source, "Source"},
		{Transform, "Transform"},
		{Sink, "Sink"},
		{AnalysisSink, "AnalysisSink"},
		{Splitter, "Splitter"},
		{Kind(99), "Unknown"},
	}
	for _, test := range tests {
		if got := test.k.String(); got != test.want {
			t.Errorf("Kind(%d).String() = %q, want %q", test.k, got, test.want)
		}
	}
}

func TestBaseTriggerableCancel(t *testing.T) {
	var b BaseTriggerable
	b.Reset()
	if b.IsCancelled() {
		t.Fatal("IsCancelled() true immediately after Reset")
	}
	b.CancelTrigger()
	if !b.IsCancelled() {
		t.Fatal("IsCancelled() false after CancelTrigger")
	}
	b.Reset()
	if b.IsCancelled() {
		t.Fatal("IsCancelled() true after Reset following cancel")
	}
}

func TestBaseTriggerableProgress(t *testing.T) {
	var b BaseTriggerable
	var gotCurrent, gotTotal uint64
	var gotMsg string
	b.SetProgressCallback(func(current, total uint64, msg string) {
		gotCurrent, gotTotal, gotMsg = current, total, msg
	})
	b.ReportProgress(5, 10, "halfway")
	if gotCurrent != 5 || gotTotal != 10 || gotMsg != "halfway" {
		t.Fatalf("progress callback got (%d,%d,%q)", gotCurrent, gotTotal, gotMsg)
	}
}

func TestBaseTriggerableStatus(t *testing.T) {
	var b BaseTriggerable
	b.SetStatus(CancelledStatus)
	if got := b.TriggerStatus(); got != CancelledStatus {
		t.Fatalf("TriggerStatus() = %q, want %q", got, CancelledStatus)
	}
}
