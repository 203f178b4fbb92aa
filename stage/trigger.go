/*
DESCRIPTION
  trigger.go defines Triggerable, the optional second contract sinks
  implement for out-of-band batch export with progress reporting and
  cooperative cancellation (spec §4.7).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stage

import (
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/vfr"
)

// ProgressFunc reports batch-export progress: current/total fields
// processed, plus a human-readable message. Emitted at stage-chosen
// granularity, typically every 10 fields (spec §6).
type ProgressFunc func(current, total uint64, message string)

// CancelledStatus is the canonical status message a triggered sink
// reports when it aborts due to cancellation rather than failure
// (spec §7).
const CancelledStatus = "Cancelled by user"

// AnalysisResults is implemented by the analysis sinks (dropout, SNR,
// burst-level) in addition to Triggerable, exposing the per-frame
// table computed by the most recent Trigger without the caller
// needing each sink's concrete FrameStats type. Results is the sink's
// own []FrameStats slice passed through as interface{}; ok is false
// unless the most recent Trigger completed successfully (a Trigger
// that is cancelled or fails leaves no results).
type AnalysisResults interface {
	Results() (results interface{}, ok bool)
}

// Triggerable is implemented by sinks (spec calls this "TriggerableStage").
// Sinks additionally implementing AnalysisResults (above) are analysis
// sinks per spec §4.8.
type Triggerable interface {
	// Trigger synchronously runs a complete batch export of inputs,
	// returning true on success. A triggered sink either produces its
	// complete output artifact or leaves no observable partial
	// artifact — temporary files are removed on cancel or error.
	Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error)

	// SetProgressCallback installs fn to receive progress updates
	// during the next Trigger call. A nil fn disables reporting.
	SetProgressCallback(fn ProgressFunc)

	// CancelTrigger cooperatively requests that an in-progress Trigger
	// abort at the next field-granularity poll point.
	CancelTrigger()

	// TriggerStatus returns the last human-readable status set by
	// Trigger, for display after the call returns.
	TriggerStatus() string
}
