/*
DESCRIPTION
  sample.go provides Field, an immutable 16-bit sample buffer with
  line-level access, and StereoField for sources that keep luma and
  chroma as logically separate channels.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sample provides the 16-bit sample buffer types used to
// represent a single TBC field, with row-major, borrowed line access.
package sample

import "fmt"

// Field is a row-major 16-bit sample buffer for a single field. Line
// stride equals width; there are height lines.
type Field struct {
	width, height int
	buf           []uint16
}

// NewField constructs a Field from a buffer of exactly width*height
// samples. It panics if the buffer length does not match, since this
// indicates a programming error in the caller rather than a runtime
// condition to recover from.
func NewField(width, height int, buf []uint16) Field {
	if len(buf) != width*height {
		panic(fmt.Sprintf("sample: buffer length %d does not match %dx%d", len(buf), width, height))
	}
	return Field{width: width, height: height, buf: buf}
}

// Width returns the field's sample width.
func (f Field) Width() int { return f.width }

// Height returns the field's line count.
func (f Field) Height() int { return f.height }

// Line returns a borrowed view of line n, valid for as long as the
// Field's backing buffer is referenced. It panics on an out-of-range
// line, mirroring the borrowed-pointer contract of §4.1: callers are
// expected to check Height() first.
func (f Field) Line(n int) []uint16 {
	if n < 0 || n >= f.height {
		panic(fmt.Sprintf("sample: line %d out of range [0,%d)", n, f.height))
	}
	start := n * f.width
	return f.buf[start : start+f.width]
}

// Buffer returns the entire field as a contiguous buffer equal to
// width*height samples, i.e. the concatenation of all lines in order.
func (f Field) Buffer() []uint16 { return f.buf }

// Blank returns a field of the given dimensions filled with level,
// used to synthesize padding fields (§4.3 field-map/range-remap).
func Blank(width, height int, level uint16) Field {
	buf := make([]uint16, width*height)
	for i := range buf {
		buf[i] = level
	}
	return NewField(width, height, buf)
}

// BlankLine returns a single line of width samples filled with level.
func BlankLine(width int, level uint16) []uint16 {
	buf := make([]uint16, width)
	for i := range buf {
		buf[i] = level
	}
	return buf
}

// StereoField holds independent luma and chroma buffers for VFRs that
// advertise has_separate_channels().
type StereoField struct {
	Luma, Chroma Field
}
