/*
DESCRIPTION
  videoparams.go defines VideoParameters, the system/geometry/IRE-level
  descriptor carried by every VFR.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package videoparams describes the system, geometry and IRE-level
// parameters shared by all fields of a VideoFieldRepresentation.
package videoparams

// System identifies the analogue video system a VFR's fields conform to.
type System int

// Supported video systems.
const (
	Unknown System = iota
	PAL
	PALM
	NTSC
)

var systemNames = [...]string{
	Unknown: "Unknown",
	PAL:     "PAL",
	PALM:    "PAL_M",
	NTSC:    "NTSC",
}

func (s System) String() string {
	if int(s) < 0 || int(s) >= len(systemNames) {
		return "Unknown"
	}
	return systemNames[s]
}

// Parameters is the per-VFR system/geometry/IRE-level descriptor
// described in spec §3.
type Parameters struct {
	System System

	// FieldWidth and FieldHeight are samples/lines per field.
	FieldWidth  int
	FieldHeight int

	// ActiveVideoStart and ActiveVideoEnd bound the visible samples of
	// a line, in samples.
	ActiveVideoStart int
	ActiveVideoEnd   int

	// FirstActiveFieldLine and LastActiveFieldLine bound the visible
	// lines of a field.
	FirstActiveFieldLine int
	LastActiveFieldLine  int

	// ColourBurstStart and ColourBurstEnd bound the colour burst
	// region of a line, in samples.
	ColourBurstStart int
	ColourBurstEnd   int

	// Blanking16bIRE, Black16bIRE and White16bIRE are the 16-bit sample
	// values representing the blanking, black and white IRE levels
	// respectively.
	Blanking16bIRE uint16
	Black16bIRE    uint16
	White16bIRE    uint16

	NumberOfSequentialFields int

	IsWidescreen       bool
	IsSubcarrierLocked bool
	IsMapped           bool

	// Decoder names the chroma decoder that produced (or will produce)
	// these parameters, e.g. "ld-decode", "transcode".
	Decoder string
}

// ActiveWidth returns the number of visible samples per line.
func (p Parameters) ActiveWidth() int {
	if p.ActiveVideoEnd <= p.ActiveVideoStart {
		return 0
	}
	return p.ActiveVideoEnd - p.ActiveVideoStart
}

// ActiveHeight returns the number of visible lines per field.
func (p Parameters) ActiveHeight() int {
	if p.LastActiveFieldLine <= p.FirstActiveFieldLine {
		return 0
	}
	return p.LastActiveFieldLine - p.FirstActiveFieldLine + 1
}
