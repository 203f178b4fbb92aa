/*
DESCRIPTION
  observer.go defines Observer, the side-effect-free metadata extractor
  contract that stages run over a VFR to populate an observation
  Context (spec §4 "Observer contract").

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package observation

import (
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/vfr"
)

// Observer extracts metadata from a single field of a VFR and records
// it into a Context. Implementations MUST be side-effect-free aside
// from the Context writes they perform: no I/O, no mutation of the
// VFR, no dependence on the order in which other observers run for
// the same field.
type Observer interface {
	// Namespace identifies the group of keys this observer writes,
	// e.g. "white_snr", "burst_level".
	Namespace() string

	// Observe inspects field id of v and records its findings into ctx
	// under Namespace(). Re-invocation for the same field overwrites
	// prior values (spec §5 ordering guarantee for re-invocations).
	Observe(v vfr.VFR, id ids.FieldID, ctx *Context) error
}
