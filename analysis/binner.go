/*
NAME
  binner.go

DESCRIPTION
  binner.go implements Binner, the field-to-bin accumulation shared by
  every analysis sink: data is grouped into at most ~1000 bins so that
  a multi-hour capture's per-field metrics still produce a
  graph-friendly dataset.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package analysis provides the shared binning helper used by the
// dropout, SNR and burst-level analysis sinks.
package analysis

import "gonum.org/v1/gonum/stat"

// targetDataPoints bounds the number of bins an analysis sink emits,
// regardless of how many fields the source VFR has.
const targetDataPoints = 1000

// Bin accumulates the raw per-field values assigned to one output
// data point.
type Bin struct {
	FrameNumber int
	FieldCount  int
	HasData     bool
	Values      []float64
}

// Mean returns the arithmetic mean of the bin's accumulated values, or
// 0 if it has none.
func (b Bin) Mean() float64 {
	if len(b.Values) == 0 {
		return 0
	}
	return stat.Mean(b.Values, nil)
}

// Sum returns the total of the bin's accumulated values.
func (b Bin) Sum() float64 {
	var total float64
	for _, v := range b.Values {
		total += v
	}
	return total
}

// Binner groups a sequence of per-field samples into at most
// ~targetDataPoints bins, each spanning fieldsPerBin consecutive
// fields. Grounded on the identical binning shape described in
// dropout_analysis_sink_stage.cpp, snr_analysis_sink_stage.cpp and
// burst_level_analysis_sink_stage.cpp.
type Binner struct {
	fieldsPerBin int
	inBin        int
	bins         []Bin
	cur          Bin
}

// NewBinner returns a Binner sized for totalFields fields.
func NewBinner(totalFields int) *Binner {
	fieldsPerBin := 1
	if totalFields > targetDataPoints {
		fieldsPerBin = (totalFields + targetDataPoints - 1) / targetDataPoints
	}
	return &Binner{fieldsPerBin: fieldsPerBin}
}

// FieldsPerBin reports how many consecutive fields each bin spans.
func (b *Binner) FieldsPerBin() int { return b.fieldsPerBin }

// Add records one field's value (or absence of one, via hasValue)
// under frameNumber, flushing the current bin once it reaches
// fieldsPerBin fields.
func (b *Binner) Add(frameNumber int, value float64, hasValue bool) {
	b.cur.FrameNumber = frameNumber
	b.cur.FieldCount++
	if hasValue {
		b.cur.Values = append(b.cur.Values, value)
		b.cur.HasData = true
	}
	b.inBin++
	if b.inBin >= b.fieldsPerBin {
		b.flush()
	}
}

func (b *Binner) flush() {
	b.bins = append(b.bins, b.cur)
	b.cur = Bin{}
	b.inBin = 0
}

// Finish flushes any partially-filled trailing bin and returns every
// bin accumulated so far.
func (b *Binner) Finish() []Bin {
	if b.inBin > 0 {
		b.flush()
	}
	return b.bins
}
