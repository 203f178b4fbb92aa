/*
NAME
  fieldmap.go

DESCRIPTION
  fieldmap.go wraps vfr.FieldMapVFR as a Stage: a transform that
  re-sequences and pads a source's fields according to a textual range
  specification (e.g. "0-99,PAD_5,100-199").

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fieldmap registers the "field_map" transform stage.
package fieldmap

import (
	"fmt"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// TypeName is the registered stage name.
const TypeName = "field_map"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage by wrapping vfr.FieldMapVFR.
type Stage struct {
	params param.Map
}

// New returns an unconfigured field-map stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Transform,
		TypeName:    TypeName,
		DisplayName: "Field Map",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "range_spec", Type: param.TypeString, Required: true},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("field_map: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	spec, ok := params["range_spec"]
	if !ok {
		return nil, fmt.Errorf("field_map: missing range_spec")
	}
	m, err := vfr.ParseRangeSpec(spec.S)
	if err != nil {
		return nil, fmt.Errorf("field_map: %w", err)
	}
	out := vfr.NewFieldMapVFR(ids.ArtifactID(fmt.Sprintf("field_map:%s", spec.S)), inputs[0], m)
	return []vfr.VFR{out}, nil
}
