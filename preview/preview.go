/*
DESCRIPTION
  preview.go renders a VFR's composite samples into a displayable
  grayscale raster image, for the actor package's RenderPreview and
  SavePNG requests (spec §4.10).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package preview renders VFR fields into displayable grayscale images
// and encodes them as PNG, for interactive preview and export.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// OutputType selects how two interlaced fields are composed into one
// preview image.
type OutputType string

// Supported preview output types.
const (
	// Field renders a single field's active video window.
	Field OutputType = "field"
	// Frame weaves two fields' lines together, one interlaced frame.
	Frame OutputType = "frame"
	// Split stacks two fields' active windows, first field on top.
	Split OutputType = "split"
)

// Render builds a grayscale preview image from v's active video
// window. first is used alone for OutputType Field; first and second
// are woven or stacked together for Frame and Split. first is always
// the field rendered on top / interleaved into even rows — callers
// (package actor) are responsible for ordering first/second by
// display parity, not capture order.
func Render(v vfr.VFR, outputType OutputType, first, second ids.FieldID) (image.Image, error) {
	params := v.Parameters()
	width := params.ActiveWidth()
	height := params.ActiveHeight()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("preview: video parameters describe an empty active video window")
	}

	switch outputType {
	case Field:
		return renderField(v, first, params, width, height)
	case Frame:
		return renderInterlaced(v, first, second, params, width, height, false)
	case Split:
		return renderInterlaced(v, first, second, params, width, height, true)
	default:
		return nil, fmt.Errorf("preview: unknown output type %q", outputType)
	}
}

func renderField(v vfr.VFR, field ids.FieldID, params videoparams.Parameters, width, height int) (image.Image, error) {
	if !v.HasField(field) {
		return nil, fmt.Errorf("preview: no such field %v", field)
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		line, ok := v.GetLine(field, params.FirstActiveFieldLine+y)
		if !ok {
			continue
		}
		writeLine(img, 0, y, line, params)
	}
	return img, nil
}

func renderInterlaced(v vfr.VFR, first, second ids.FieldID, params videoparams.Parameters, width, height int, split bool) (image.Image, error) {
	if !v.HasField(first) || !v.HasField(second) {
		return nil, fmt.Errorf("preview: no such field pair (%v, %v)", first, second)
	}
	img := image.NewGray(image.Rect(0, 0, width, height*2))
	for y := 0; y < height; y++ {
		if line, ok := v.GetLine(first, params.FirstActiveFieldLine+y); ok {
			dstY := y * 2
			if split {
				dstY = y
			}
			writeLine(img, 0, dstY, line, params)
		}
		if line, ok := v.GetLine(second, params.FirstActiveFieldLine+y); ok {
			dstY := y*2 + 1
			if split {
				dstY = height + y
			}
			writeLine(img, 0, dstY, line, params)
		}
	}
	return img, nil
}

// writeLine scales the active-video samples of line into [0,255],
// normalizing against the black/white IRE reference levels, and
// writes them into img's row y starting at x0.
func writeLine(img *image.Gray, x0, y int, line []uint16, params videoparams.Parameters) {
	lo := float64(params.Black16bIRE)
	span := float64(params.White16bIRE) - lo
	if span <= 0 {
		span = 1
	}
	start, end := params.ActiveVideoStart, params.ActiveVideoEnd
	for x := start; x < end && x < len(line); x++ {
		norm := (float64(line[x]) - lo) / span
		switch {
		case norm < 0:
			norm = 0
		case norm > 1:
			norm = 1
		}
		img.SetGray(x0+x-start, y, color.Gray{Y: uint8(norm * 255)})
	}
}

// EncodePNG encodes img as PNG-format bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("preview: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
