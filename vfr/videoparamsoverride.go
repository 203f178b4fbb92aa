/*
DESCRIPTION
  videoparamsoverride.go implements the video-params-override wrapper:
  replaces the VideoParameters returned to consumers, sample data
  untouched (spec §4.3).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vfr

import (
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/videoparams"
)

// VideoParamsOverrideVFR substitutes Params for whatever VideoParameters
// its source would otherwise return; every other accessor passes
// through unchanged.
type VideoParamsOverrideVFR struct {
	Wrapper
	Params videoparams.Parameters
}

// NewVideoParamsOverrideVFR constructs a VideoParamsOverrideVFR.
func NewVideoParamsOverrideVFR(id ids.ArtifactID, source VFR, params videoparams.Parameters) *VideoParamsOverrideVFR {
	return &VideoParamsOverrideVFR{Wrapper: Wrapper{Source: source, SelfID: id}, Params: params}
}

func (v *VideoParamsOverrideVFR) Parameters() videoparams.Parameters { return v.Params }
