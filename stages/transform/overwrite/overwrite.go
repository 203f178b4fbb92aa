/*
NAME
  overwrite.go

DESCRIPTION
  overwrite.go wraps vfr.OverwriteVFR as a Stage: a transform that
  substitutes a constant sample value over a fixed rectangular region,
  used to mask known-bad regions of every field (e.g. a broken head
  switch artifact at a fixed line).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package overwrite registers the "overwrite" transform stage.
package overwrite

import (
	"fmt"

	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
)

// TypeName is the registered stage name.
const TypeName = "overwrite"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage by wrapping vfr.OverwriteVFR.
type Stage struct {
	params param.Map
}

// New returns an unconfigured overwrite stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Transform,
		TypeName:    TypeName,
		DisplayName: "Overwrite",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "first_line", Type: param.TypeInt, Required: true, HasMin: true, Min: 0},
		{Name: "last_line", Type: param.TypeInt, Required: true, HasMin: true, Min: 0},
		{Name: "first_sample", Type: param.TypeInt, Required: true, HasMin: true, Min: 0},
		{Name: "last_sample", Type: param.TypeInt, Required: true, HasMin: true, Min: 0},
		{Name: "value", Type: param.TypeInt, Required: true, HasMin: true, Min: 0, HasMax: true, Max: 65535},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("overwrite: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	rect := vfr.OverwriteRect{
		FirstLine:   int(params["first_line"].I),
		LastLine:    int(params["last_line"].I),
		FirstSample: int(params["first_sample"].I),
		LastSample:  int(params["last_sample"].I),
		Value:       uint16(params["value"].I),
	}
	out := vfr.NewOverwriteVFR("overwrite", inputs[0], rect)
	return []vfr.VFR{out}, nil
}
