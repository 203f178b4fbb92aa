/*
DESCRIPTION
  trigger_base.go provides BaseTriggerable, an embeddable helper that
  implements the bookkeeping portion of the Triggerable contract
  (cancel flag, progress callback, last status) so that concrete sinks
  only need to implement the actual export loop and poll IsCancelled
  at field granularity.

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

import "sync/atomic"

// BaseTriggerable implements the cancel-flag/progress-callback/status
// bookkeeping shared by every Triggerable sink. Concrete sinks embed
// it and call Reset at the start of Trigger, ReportProgress during the
// export loop, IsCancelled to poll at field granularity, and SetStatus
// before returning.
type BaseTriggerable struct {
	cancelled atomic.Bool
	progress  atomic.Value // ProgressFunc
	status    atomic.Value // string
}

// Reset clears the cancel flag at the start of a new Trigger call.
func (b *BaseTriggerable) Reset() { b.cancelled.Store(false) }

// SetProgressCallback installs fn to receive progress updates.
func (b *BaseTriggerable) SetProgressCallback(fn ProgressFunc) {
	if fn == nil {
		b.progress.Store(ProgressFunc(func(uint64, uint64, string) {}))
		return
	}
	b.progress.Store(fn)
}

// ReportProgress invokes the installed progress callback, if any.
func (b *BaseTriggerable) ReportProgress(current, total uint64, message string) {
	if fn, ok := b.progress.Load().(ProgressFunc); ok && fn != nil {
		fn(current, total, message)
	}
}

// CancelTrigger requests cooperative cancellation of an in-progress
// Trigger call.
func (b *BaseTriggerable) CancelTrigger() { b.cancelled.Store(true) }

// IsCancelled reports whether cancellation has been requested. Callers
// poll this at field granularity during the export loop.
func (b *BaseTriggerable) IsCancelled() bool { return b.cancelled.Load() }

// SetStatus records the last human-readable trigger status.
func (b *BaseTriggerable) SetStatus(s string) { b.status.Store(s) }

// TriggerStatus returns the last status recorded by SetStatus.
func (b *BaseTriggerable) TriggerStatus() string {
	if s, ok := b.status.Load().(string); ok {
		return s
	}
	return ""
}
