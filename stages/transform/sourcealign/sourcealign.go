/*
NAME
  sourcealign.go

DESCRIPTION
  sourcealign.go wraps vfr.SourceAlignVFR as a Stage: a transform that
  shifts a source's field indices by a configured offset, dropping a
  leading prefix of fields.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sourcealign registers the "source_align" transform stage.
package sourcealign

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
const TypeName = "source_align"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage by wrapping vfr.SourceAlignVFR.
type Stage struct {
	params param.Map
}

// New returns an unconfigured source-align stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Transform,
		TypeName:    TypeName,
		DisplayName: "Source Align",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "offset", Type: param.TypeInt, Required: true, HasMin: true, Min: 0},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("source_align: %w", err)
	}
	s.params = m
	return nil
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	offset, ok := params["offset"]
	if !ok {
		return nil, fmt.Errorf("source_align: missing offset")
	}
	out := vfr.NewSourceAlignVFR(ids.ArtifactID(fmt.Sprintf("source_align:%d", offset.I)), inputs[0], int(offset.I))
	return []vfr.VFR{out}, nil
}
