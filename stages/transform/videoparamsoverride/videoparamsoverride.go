/*
NAME
  videoparamsoverride.go

DESCRIPTION
  videoparamsoverride.go wraps vfr.VideoParamsOverrideVFR as a Stage: a
  transform that overrides selected fields of a source's reported
  VideoParameters (system, field width/height, black and white levels)
  and keeps the rest as reported (used when a source's auto-detected
  parameters are wrong, e.g. a mis-detected system or black/white
  levels).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package videoparamsoverride registers the "video_params_override"
// transform stage.
package videoparamsoverride

import (
	"fmt"

	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// TypeName is the registered stage name.
const TypeName = "video_params_override"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage by wrapping vfr.VideoParamsOverrideVFR.
type Stage struct {
	params param.Map
}

// New returns an unconfigured video-params-override stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Transform,
		TypeName:    TypeName,
		DisplayName: "Video Params Override",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 1, MaxOutputs: 1,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "system", Type: param.TypeString, Required: true, AllowedStrings: []string{"PAL", "PALM", "NTSC"}},
		{Name: "field_width", Type: param.TypeInt, Required: true, HasMin: true, Min: 1},
		{Name: "field_height", Type: param.TypeInt, Required: true, HasMin: true, Min: 1},
		{Name: "black_level", Type: param.TypeInt, Required: true, HasMin: true, Min: 0, HasMax: true, Max: 65535},
		{Name: "white_level", Type: param.TypeInt, Required: true, HasMin: true, Min: 0, HasMax: true, Max: 65535},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("video_params_override: %w", err)
	}
	s.params = m
	return nil
}

func systemFromName(name string) videoparams.System {
	switch name {
	case "PAL":
		return videoparams.PAL
	case "PALM":
		return videoparams.PALM
	case "NTSC":
		return videoparams.NTSC
	default:
		return videoparams.Unknown
	}
}

func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	p := inputs[0].Parameters()
	if v, ok := params["system"]; ok {
		p.System = systemFromName(v.S)
	}
	if v, ok := params["field_width"]; ok {
		p.FieldWidth = int(v.I)
	}
	if v, ok := params["field_height"]; ok {
		p.FieldHeight = int(v.I)
	}
	if v, ok := params["black_level"]; ok {
		p.Black16bIRE = uint16(v.I)
	}
	if v, ok := params["white_level"]; ok {
		p.White16bIRE = uint16(v.I)
	}
	out := vfr.NewVideoParamsOverrideVFR("video_params_override", inputs[0], p)
	return []vfr.VFR{out}, nil
}
