package project_test

import (
	"strings"
	"testing"

	"github.com/tbcorc/orc/project"

	_ "github.com/tbcorc/orc/stages/sink/efmsink"
	_ "github.com/tbcorc/orc/stages/source/ldfile"
	_ "github.com/tbcorc/orc/stages/transform/dropoutcorrect"
)

const validDoc = `{
	"name": "test project",
	"description": "",
	"video_format": 0,
	"nodes": [
		{"node_id": "src", "stage_type_name": "ld_file_source", "parameters": {"input_path": "in.tbc"}},
		{"node_id": "correct", "stage_type_name": "dropout_correct", "parameters": {}},
		{"node_id": "sink", "stage_type_name": "efm_sink", "parameters": {"output_path": "out.efm"}}
	],
	"edges": [
		{"from_node": "src", "from_output_index": 0, "to_node": "correct", "to_input_index": 0},
		{"from_node": "correct", "from_output_index": 0, "to_node": "sink", "to_input_index": 0}
	]
}`

func TestLoadAndBuild(t *testing.T) {
	doc, err := project.Load(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, err := project.Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(d.Nodes) != 3 {
		t.Fatalf("len(d.Nodes) = %d, want 3", len(d.Nodes))
	}
	if len(d.SinkNodes) != 1 || d.SinkNodes[0] != "sink" {
		t.Fatalf("d.SinkNodes = %v, want [sink]", d.SinkNodes)
	}
}

func TestBuildAssignsIDWhenOmitted(t *testing.T) {
	const doc = `{
		"nodes": [{"stage_type_name": "ld_file_source", "parameters": {}}],
		"edges": []
	}`
	d, err := project.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	built, err := project.Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built.Nodes) != 1 {
		t.Fatalf("len(built.Nodes) = %d, want 1", len(built.Nodes))
	}
	if built.Nodes[0].NodeID == "" {
		t.Fatal("expected Build to assign a non-empty node id when node_id is omitted")
	}
}

func TestBuildUnknownStageType(t *testing.T) {
	const doc = `{
		"nodes": [{"node_id": "a", "stage_type_name": "does_not_exist", "parameters": {}}],
		"edges": []
	}`
	d, err := project.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := project.Build(d); err == nil {
		t.Fatal("expected Build to fail for an unregistered stage type")
	}
}

func TestBuildDuplicateNodeID(t *testing.T) {
	const doc = `{
		"nodes": [
			{"node_id": "a", "stage_type_name": "ld_file_source", "parameters": {}},
			{"node_id": "a", "stage_type_name": "ld_file_source", "parameters": {}}
		],
		"edges": []
	}`
	d, err := project.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := project.Build(d); err == nil {
		t.Fatal("expected Build to fail for a duplicate node id")
	}
}

func TestBuildMissingRequiredParameter(t *testing.T) {
	const doc = `{
		"nodes": [
			{"node_id": "src", "stage_type_name": "ld_file_source", "parameters": {}},
			{"node_id": "sink", "stage_type_name": "efm_sink", "parameters": {}}
		],
		"edges": [
			{"from_node": "src", "from_output_index": 0, "to_node": "sink", "to_input_index": 0}
		]
	}`
	d, err := project.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := project.Build(d); err == nil {
		t.Fatal("expected Build to fail: efm_sink requires output_path")
	}
}

func TestBuildUnknownParameterKey(t *testing.T) {
	const doc = `{
		"nodes": [
			{"node_id": "src", "stage_type_name": "ld_file_source", "parameters": {"bogus_key": "x"}}
		],
		"edges": []
	}`
	d, err := project.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := project.Build(d); err == nil {
		t.Fatal("expected Build to fail for an unknown parameter key")
	}
}

func TestLoadRejectsUnknownTopLevelField(t *testing.T) {
	const doc = `{"nodes": [], "edges": [], "bogus": true}`
	if _, err := project.Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected Load to reject an unknown top-level field")
	}
}
