/*
DESCRIPTION
  stage.go defines the Stage contract: the interface every source,
  transform, sink, analysis-sink and splitter must satisfy, along with
  NodeTypeInfo, the static capability descriptor each stage advertises
  (spec §4.2).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package stage defines the Stage and Triggerable contracts that every
// pipeline node implements, plus the video-format compatibility and
// NodeTypeInfo capability descriptors the DAG and registry use to
// validate node wiring.
package stage

import (
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/vfr"
)

// Kind identifies which of the five node roles a stage plays.
type Kind int

// Stage kinds.
const (
	Source Kind = iota
	Transform
	Sink
	AnalysisSink
	Splitter
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "Source"
	case Transform:
		return "Transform"
	case Sink:
		return "Sink"
	case AnalysisSink:
		return "AnalysisSink"
	case Splitter:
		return "Splitter"
	default:
		return "Unknown"
	}
}

// FormatCompat restricts which video systems a stage supports.
type FormatCompat int

// Format compatibility tags.
const (
	All FormatCompat = iota
	PalOnly
	NtscOnly
)

// NodeTypeInfo is the static capability descriptor a stage advertises.
type NodeTypeInfo struct {
	Kind        Kind
	TypeName    string // registered type name, stable across versions.
	DisplayName string

	MinInputs, MaxInputs   int
	MinOutputs, MaxOutputs int

	FormatCompat FormatCompat
}

// Stage is the contract every pipeline node implements.
type Stage interface {
	// TypeInfo returns this stage's static capability descriptor.
	TypeInfo() NodeTypeInfo

	// Execute runs the stage given its resolved inputs and current
	// parameters, accumulating any observations into ctx. Sources
	// receive no inputs. Transforms return one or more VFR outputs;
	// sinks and analysis sinks return no outputs. A source MAY return
	// zero outputs to signal "unconfigured" (spec §4.4/§9); a
	// transform returning fewer outputs than TypeInfo().MinOutputs is
	// an execution error.
	Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error)

	// ParameterDescriptors returns the parameter descriptors this stage
	// accepts, which may depend on the project's video format and the
	// upstream source's type name.
	ParameterDescriptors(format int, sourceType string) []param.Descriptor

	// GetParameters returns the stage's current validated parameter
	// state.
	GetParameters() param.Map

	// SetParameters validates m against ParameterDescriptors and, only
	// if valid, replaces the stage's parameter state. On validation
	// failure the stage's existing state is left unmodified.
	SetParameters(m param.Map) error
}
