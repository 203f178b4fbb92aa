/*
DESCRIPTION
  actor.go implements Coordinator, the single background worker that
  owns the current DAG, field renderer, and active trigger handle, and
  serializes GUI-issued requests against them (spec §4.10).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package actor provides Coordinator, a single-goroutine owner of a
// DAG and its FieldRenderer that an interactive caller can enqueue
// requests to without racing the renderer's internal caches. Requests
// are processed strictly in enqueue order; responses are delivered as
// typed events on a channel. CancelTrigger and the pure-calculation
// coordinate-mapping queries bypass the queue entirely.
package actor

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/tbcorc/orc/dag"
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/preview"
	"github.com/tbcorc/orc/render"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/stages/vbidecoder"
	"github.com/tbcorc/orc/vfr"
)

// RequestID identifies one enqueued request; every response event
// echoes the RequestID of the request that produced it.
type RequestID uint64

// requestChanCapacity and eventChanCapacity bound how many requests
// and events can be outstanding before a caller/worker blocks on send.
const (
	requestChanCapacity = 64
	eventChanCapacity   = 64
)

// Request is the sealed set of request types a Coordinator accepts.
// Dispatch is by type switch in the worker loop, not an interface
// method, so adding a request type is a compile error everywhere it
// isn't handled.
type Request interface {
	requestID() RequestID
}

type baseRequest struct{ ReqID RequestID }

func (b baseRequest) requestID() RequestID { return b.ReqID }

// UpdateDAGRequest replaces the coordinator's DAG.
type UpdateDAGRequest struct {
	baseRequest
	DAG *dag.DAG
}

// shutdownRequest asks the worker to drain and stop. It is not
// exported: callers use Coordinator.Shutdown.
type shutdownRequest struct{ baseRequest }

// RenderPreviewRequest asks for a rendered preview image of one
// output of node.
type RenderPreviewRequest struct {
	baseRequest
	Node       ids.NodeID
	OutputType preview.OutputType
	Index      int
	OptionID   string
}

// GetAvailableOutputsRequest asks which outputs node exposes.
type GetAvailableOutputsRequest struct {
	baseRequest
	Node ids.NodeID
}

// GetVBIDataRequest asks for the decoded VBI view of one field.
type GetVBIDataRequest struct {
	baseRequest
	Node  ids.NodeID
	Field ids.FieldID
}

// GetDropoutDataRequest asks for node's dropout analysis table. The
// mode (whole-field vs active-video-only) is fixed by the sink's own
// configured parameters, not selectable per query.
type GetDropoutDataRequest struct {
	baseRequest
	Node ids.NodeID
}

// GetSNRDataRequest asks for node's SNR/PSNR analysis table.
type GetSNRDataRequest struct {
	baseRequest
	Node ids.NodeID
}

// GetBurstLevelDataRequest asks for node's burst-level analysis table.
type GetBurstLevelDataRequest struct {
	baseRequest
	Node ids.NodeID
}

// GetLineSamplesRequest asks for one line's sample vector.
type GetLineSamplesRequest struct {
	baseRequest
	Node       ids.NodeID
	OutputType preview.OutputType
	Index      int
	Line       int
	X          int
	ImageWidth int
}

// NavigateFrameLineRequest asks for the coordinates of the adjacent
// display line from (field, line), accounting for interlacing.
type NavigateFrameLineRequest struct {
	baseRequest
	Node        ids.NodeID
	OutputType  preview.OutputType
	Field       ids.FieldID
	Line        int
	Direction   int
	ImageHeight int
}

// SavePNGRequest asks the worker to render and write one output as a
// PNG file.
type SavePNGRequest struct {
	baseRequest
	Node       ids.NodeID
	OutputType preview.OutputType
	Index      int
	Filename   string
	OptionID   string
}

// TriggerStageRequest asks the worker to run a batch export Trigger on
// node, which must implement stage.Triggerable.
type TriggerStageRequest struct {
	baseRequest
	Node ids.NodeID
}

// Event is the sealed set of response/notification types delivered on
// Coordinator.Events.
type Event interface {
	RequestID() RequestID
}

type baseEvent struct{ ReqID RequestID }

func (b baseEvent) RequestID() RequestID { return b.ReqID }

// DAGUpdatedEvent confirms a successful UpdateDAGRequest.
type DAGUpdatedEvent struct{ baseEvent }

// PreviewReadyEvent carries a rendered preview's PNG-encoded bytes.
type PreviewReadyEvent struct {
	baseEvent
	Image    []byte
	Metadata map[string]string
}

// OutputDescriptor describes one renderable output of a node.
type OutputDescriptor struct {
	Index       int
	OutputType  preview.OutputType
	DisplayName string
}

// AvailableOutputsReadyEvent answers a GetAvailableOutputsRequest.
type AvailableOutputsReadyEvent struct {
	baseEvent
	Outputs []OutputDescriptor
}

// VBIDataReadyEvent answers a GetVBIDataRequest. Info holds the
// decoded vbidecoder.FieldInfo as an interface{}; callers type-assert
// to vbidecoder.FieldInfo.
type VBIDataReadyEvent struct {
	baseEvent
	Info interface{}
}

// DropoutDataReadyEvent / SNRDataReadyEvent / BurstLevelDataReadyEvent
// answer the corresponding analysis-table requests. Stats holds the
// analysis sink's own FrameStats slice (dropout.FrameStats etc.) as an
// interface{}; callers type-assert to the concrete slice type.
type DropoutDataReadyEvent struct {
	baseEvent
	Stats interface{}
}
type SNRDataReadyEvent struct {
	baseEvent
	Stats interface{}
}
type BurstLevelDataReadyEvent struct {
	baseEvent
	Stats interface{}
}

// AnalysisProgressEvent reports progress while an analysis sink's
// Trigger is computing one of the above tables.
type AnalysisProgressEvent struct {
	baseEvent
	Current, Total uint64
	Message        string
}

// LineSamplesReadyEvent answers a GetLineSamplesRequest.
type LineSamplesReadyEvent struct {
	baseEvent
	Samples []uint16
}

// FrameLineNavigationReadyEvent answers a NavigateFrameLineRequest.
type FrameLineNavigationReadyEvent struct {
	baseEvent
	Field ids.FieldID
	Line  int
}

// PNGSavedEvent confirms a successful SavePNGRequest.
type PNGSavedEvent struct {
	baseEvent
	Filename string
}

// TriggerProgressEvent reports Trigger progress for a TriggerStageRequest.
type TriggerProgressEvent struct {
	baseEvent
	Current, Total uint64
	Message        string
}

// TriggerCompleteEvent reports the final outcome of a TriggerStageRequest.
type TriggerCompleteEvent struct {
	baseEvent
	Success bool
	Status  string
}

// ErrorEvent reports that processing a request failed. The worker
// continues running after emitting one.
type ErrorEvent struct {
	baseEvent
	Message string
}

// FrameFields reports which two fields comprise a frame, ordered by
// display parity (First is the top/first-displayed field).
type FrameFields struct {
	First, Second ids.FieldID
	Found         bool
}

// ImageToFieldMapping is the result of mapping an image row to a
// field and line.
type ImageToFieldMapping struct {
	Field ids.FieldID
	Line  int
	Found bool
}

// FieldToImageMapping is the result of mapping a field line back to
// an image row.
type FieldToImageMapping struct {
	ImageY int
	Found  bool
}

// Coordinator is the single-goroutine owner of a DAG and its
// FieldRenderer. Zero value is not usable; construct with New.
type Coordinator struct {
	requests chan Request
	events   chan Event
	nextID   uint64
	idMu     sync.Mutex

	// mu guards dag/renderer against races between the worker
	// goroutine and the synchronous pure-calculation query methods,
	// which run on the caller's own goroutine.
	mu       sync.Mutex
	dagState *dag.DAG
	renderer *render.FieldRenderer

	triggerMu    sync.Mutex
	activeTrigger stage.Triggerable

	log logging.Logger

	done chan struct{}
}

// New constructs a Coordinator over d and starts its worker goroutine.
// log receives key-value entries for DAG updates, trigger outcomes,
// and request failures; a nil log discards them.
func New(d *dag.DAG, log logging.Logger) (*Coordinator, error) {
	r, err := render.NewFieldRenderer(d)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.New(logging.Fatal, io.Discard, true)
	}
	c := &Coordinator{
		requests: make(chan Request, requestChanCapacity),
		events:   make(chan Event, eventChanCapacity),
		dagState: d,
		renderer: r,
		log:      log,
		done:     make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Events returns the channel events are delivered on. It is closed
// after Shutdown's request has been processed.
func (c *Coordinator) Events() <-chan Event { return c.events }

func (c *Coordinator) nextRequestID() RequestID {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	c.nextID++
	return RequestID(c.nextID)
}

func (c *Coordinator) enqueue(req Request) RequestID {
	c.requests <- req
	return req.requestID()
}

// UpdateDAG enqueues a replacement DAG. A DAGUpdatedEvent or ErrorEvent
// follows.
func (c *Coordinator) UpdateDAG(d *dag.DAG) RequestID {
	return c.enqueue(UpdateDAGRequest{baseRequest{c.nextRequestID()}, d})
}

// RenderPreview enqueues a preview-image render.
func (c *Coordinator) RenderPreview(node ids.NodeID, outputType preview.OutputType, index int, optionID string) RequestID {
	return c.enqueue(RenderPreviewRequest{baseRequest{c.nextRequestID()}, node, outputType, index, optionID})
}

// GetAvailableOutputs enqueues an output-descriptor query.
func (c *Coordinator) GetAvailableOutputs(node ids.NodeID) RequestID {
	return c.enqueue(GetAvailableOutputsRequest{baseRequest{c.nextRequestID()}, node})
}

// GetVBIData enqueues a VBI-decode query.
func (c *Coordinator) GetVBIData(node ids.NodeID, field ids.FieldID) RequestID {
	return c.enqueue(GetVBIDataRequest{baseRequest{c.nextRequestID()}, node, field})
}

// GetDropoutData enqueues a dropout-analysis-table query.
func (c *Coordinator) GetDropoutData(node ids.NodeID) RequestID {
	return c.enqueue(GetDropoutDataRequest{baseRequest{c.nextRequestID()}, node})
}

// GetSNRData enqueues an SNR/PSNR-analysis-table query.
func (c *Coordinator) GetSNRData(node ids.NodeID) RequestID {
	return c.enqueue(GetSNRDataRequest{baseRequest{c.nextRequestID()}, node})
}

// GetBurstLevelData enqueues a burst-level-analysis-table query.
func (c *Coordinator) GetBurstLevelData(node ids.NodeID) RequestID {
	return c.enqueue(GetBurstLevelDataRequest{baseRequest{c.nextRequestID()}, node})
}

// GetLineSamples enqueues a per-line sample-vector query.
func (c *Coordinator) GetLineSamples(node ids.NodeID, outputType preview.OutputType, index, line, x, imageWidth int) RequestID {
	return c.enqueue(GetLineSamplesRequest{baseRequest{c.nextRequestID()}, node, outputType, index, line, x, imageWidth})
}

// NavigateFrameLine enqueues an adjacent-display-line query.
func (c *Coordinator) NavigateFrameLine(node ids.NodeID, outputType preview.OutputType, field ids.FieldID, line, direction, imageHeight int) RequestID {
	return c.enqueue(NavigateFrameLineRequest{baseRequest{c.nextRequestID()}, node, outputType, field, line, direction, imageHeight})
}

// SavePNG enqueues a render-and-save-to-disk request.
func (c *Coordinator) SavePNG(node ids.NodeID, outputType preview.OutputType, index int, filename, optionID string) RequestID {
	return c.enqueue(SavePNGRequest{baseRequest{c.nextRequestID()}, node, outputType, index, filename, optionID})
}

// TriggerStage enqueues a batch-export Trigger on node.
func (c *Coordinator) TriggerStage(node ids.NodeID) RequestID {
	return c.enqueue(TriggerStageRequest{baseRequest{c.nextRequestID()}, node})
}

// CancelTrigger requests cancellation of whichever trigger is
// currently executing, if any. Unlike every other method on
// Coordinator, this bypasses the request queue entirely — it sets the
// cancel flag directly from the caller's goroutine so it can interrupt
// an in-progress batch rather than waiting behind it in the queue.
func (c *Coordinator) CancelTrigger() {
	c.triggerMu.Lock()
	t := c.activeTrigger
	c.triggerMu.Unlock()
	if t != nil {
		t.CancelTrigger()
	}
}

// Shutdown enqueues a shutdown request and blocks until the worker has
// drained its queue and exited.
func (c *Coordinator) Shutdown() {
	c.requests <- shutdownRequest{baseRequest{c.nextRequestID()}}
	<-c.done
}

// GetFrameFields is a synchronous pure-calculation query: it bypasses
// the request queue and runs on the caller's goroutine, guarded by a
// brief lock on the shared DAG/renderer state.
func (c *Coordinator) GetFrameFields(node ids.NodeID, frameNumber int) FrameFields {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.renderer.Node(node)
	if err != nil {
		return FrameFields{}
	}
	first, second, ok := frameFields(v, frameNumber)
	return FrameFields{First: first, Second: second, Found: ok}
}

// MapImageToField is a synchronous pure-calculation query (see
// GetFrameFields).
func (c *Coordinator) MapImageToField(node ids.NodeID, outputType preview.OutputType, index, imageY, imageHeight int) ImageToFieldMapping {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.renderer.Node(node)
	if err != nil {
		return ImageToFieldMapping{}
	}
	return mapImageToField(v, outputType, index, imageY, imageHeight)
}

// MapFieldToImage is a synchronous pure-calculation query (see
// GetFrameFields).
func (c *Coordinator) MapFieldToImage(node ids.NodeID, outputType preview.OutputType, index int, field ids.FieldID, line, imageHeight int) FieldToImageMapping {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.renderer.Node(node)
	if err != nil {
		return FieldToImageMapping{}
	}
	return mapFieldToImage(v, outputType, index, field, line, imageHeight)
}

// frameFields returns the two fields sharing frameNumber, First being
// whichever the parity hint marks as the top/first-displayed field
// (falling back to ascending FieldID order when parity is unknown).
// Both frame and split outputs use the same parity-based field
// ordering so the pair displayed is always temporally adjacent.
func frameFields(v vfr.VFR, frameNumber int) (first, second ids.FieldID, ok bool) {
	fr := v.FieldRange()
	var fields []ids.FieldID
	for id := fr.Start; id < fr.End; id++ {
		d, got := v.GetDescriptor(id)
		if got && d.FrameNumber == frameNumber {
			fields = append(fields, id)
		}
	}
	if len(fields) != 2 {
		return 0, 0, false
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	first, second = fields[0], fields[1]
	d0, _ := v.GetDescriptor(first)
	d1, _ := v.GetDescriptor(second)
	if d0.Parity == vfr.Bottom && d1.Parity == vfr.Top {
		first, second = second, first
	}
	return first, second, true
}

func mapImageToField(v vfr.VFR, outputType preview.OutputType, index, imageY, imageHeight int) ImageToFieldMapping {
	params := v.Parameters()
	fieldHeight := params.FieldHeight
	if fieldHeight <= 0 || imageHeight <= 0 || imageY < 0 || imageY >= imageHeight {
		return ImageToFieldMapping{}
	}

	switch outputType {
	case preview.Field:
		fr := v.FieldRange()
		field := fr.Start + ids.FieldID(index)
		if !fr.Contains(field) {
			return ImageToFieldMapping{}
		}
		return ImageToFieldMapping{Field: field, Line: imageY * fieldHeight / imageHeight, Found: true}

	case preview.Frame:
		first, second, ok := frameFields(v, index)
		if !ok || imageHeight < 2 {
			return ImageToFieldMapping{}
		}
		field := first
		if imageY%2 == 1 {
			field = second
		}
		return ImageToFieldMapping{Field: field, Line: (imageY / 2) * fieldHeight / (imageHeight / 2), Found: true}

	case preview.Split:
		first, second, ok := frameFields(v, index)
		half := imageHeight / 2
		if !ok || half == 0 {
			return ImageToFieldMapping{}
		}
		field, y := first, imageY
		if imageY >= half {
			field, y = second, imageY-half
		}
		return ImageToFieldMapping{Field: field, Line: y * fieldHeight / half, Found: true}

	default:
		return ImageToFieldMapping{}
	}
}

func mapFieldToImage(v vfr.VFR, outputType preview.OutputType, index int, field ids.FieldID, line, imageHeight int) FieldToImageMapping {
	params := v.Parameters()
	fieldHeight := params.FieldHeight
	if fieldHeight <= 0 || imageHeight <= 0 {
		return FieldToImageMapping{}
	}

	switch outputType {
	case preview.Field:
		return FieldToImageMapping{ImageY: line * imageHeight / fieldHeight, Found: true}

	case preview.Frame:
		first, second, ok := frameFields(v, index)
		if !ok || imageHeight < 2 {
			return FieldToImageMapping{}
		}
		row := line * (imageHeight / 2) / fieldHeight
		y := row * 2
		switch field {
		case second:
			y++
		case first:
		default:
			return FieldToImageMapping{}
		}
		return FieldToImageMapping{ImageY: y, Found: true}

	case preview.Split:
		first, second, ok := frameFields(v, index)
		half := imageHeight / 2
		if !ok || half == 0 {
			return FieldToImageMapping{}
		}
		y := line * half / fieldHeight
		switch field {
		case second:
			y += half
		case first:
		default:
			return FieldToImageMapping{}
		}
		return FieldToImageMapping{ImageY: y, Found: true}

	default:
		return FieldToImageMapping{}
	}
}

func (c *Coordinator) run() {
	defer close(c.done)
	defer close(c.events)
	for req := range c.requests {
		if _, isShutdown := req.(shutdownRequest); isShutdown {
			return
		}
		c.handle(req)
	}
}

func (c *Coordinator) handle(req Request) {
	switch r := req.(type) {
	case UpdateDAGRequest:
		c.handleUpdateDAG(r)
	case RenderPreviewRequest:
		c.handleRenderPreview(r)
	case GetAvailableOutputsRequest:
		c.handleGetAvailableOutputs(r)
	case GetVBIDataRequest:
		c.handleGetVBIData(r)
	case GetDropoutDataRequest:
		c.handleGetDropoutData(r)
	case GetSNRDataRequest:
		c.handleGetSNRData(r)
	case GetBurstLevelDataRequest:
		c.handleGetBurstLevelData(r)
	case GetLineSamplesRequest:
		c.handleGetLineSamples(r)
	case NavigateFrameLineRequest:
		c.handleNavigateFrameLine(r)
	case SavePNGRequest:
		c.handleSavePNG(r)
	case TriggerStageRequest:
		c.handleTriggerStage(r)
	default:
		c.emitError(req.requestID(), fmt.Sprintf("actor: unhandled request type %T", req))
	}
}

func (c *Coordinator) emitError(id RequestID, message string) {
	c.log.Error("request failed", "request_id", id, "message", message)
	c.events <- ErrorEvent{baseEvent{id}, message}
}

func (c *Coordinator) handleUpdateDAG(r UpdateDAGRequest) {
	c.mu.Lock()
	err := c.renderer.UpdateDAG(r.DAG)
	if err == nil {
		c.dagState = r.DAG
	}
	c.mu.Unlock()
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	c.log.Debug("dag updated", "request_id", r.ReqID, "nodes", len(r.DAG.Nodes))
	c.events <- DAGUpdatedEvent{baseEvent{r.ReqID}}
}

func (c *Coordinator) renderedVFR(node ids.NodeID) (vfr.VFR, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Node(node)
}

func (c *Coordinator) handleRenderPreview(r RenderPreviewRequest) {
	v, err := c.renderedVFR(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	first, second, ok := frameFields(v, r.Index)
	if !ok {
		fr := v.FieldRange()
		first = fr.Start + ids.FieldID(r.Index)
		second = first
	}
	img, err := preview.Render(v, r.OutputType, first, second)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	data, err := preview.EncodePNG(img)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	b := img.Bounds()
	c.events <- PreviewReadyEvent{
		baseEvent{r.ReqID},
		data,
		map[string]string{
			"width":  fmt.Sprintf("%d", b.Dx()),
			"height": fmt.Sprintf("%d", b.Dy()),
		},
	}
}

func (c *Coordinator) handleGetAvailableOutputs(r GetAvailableOutputsRequest) {
	c.mu.Lock()
	n, ok := c.dagState.Node(r.Node)
	c.mu.Unlock()
	if !ok {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q not found", r.Node))
		return
	}
	info := n.Stage.TypeInfo()
	types := []preview.OutputType{preview.Field, preview.Frame, preview.Split}
	outs := make([]OutputDescriptor, 0, info.MaxOutputs*len(types))
	for i := 0; i < info.MaxOutputs; i++ {
		for _, t := range types {
			outs = append(outs, OutputDescriptor{Index: i, OutputType: t, DisplayName: fmt.Sprintf("%s #%d", t, i)})
		}
	}
	c.events <- AvailableOutputsReadyEvent{baseEvent{r.ReqID}, outs}
}

func (c *Coordinator) handleGetVBIData(r GetVBIDataRequest) {
	c.mu.Lock()
	_, err := c.renderer.Node(r.Node)
	ctx := c.renderer.Observations()
	c.mu.Unlock()
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	info := vbidecoder.Decode(ctx, r.Field)
	c.events <- VBIDataReadyEvent{baseEvent{r.ReqID}, info}
}

// analysisResultsFor looks up node and, if its stage also implements
// stage.AnalysisResults, returns its most recently computed table.
func (c *Coordinator) analysisResultsFor(node ids.NodeID) (interface{}, bool, error) {
	c.mu.Lock()
	n, ok := c.dagState.Node(node)
	c.mu.Unlock()
	if !ok {
		return nil, false, fmt.Errorf("actor: node %q not found", node)
	}
	ar, ok := n.Stage.(stage.AnalysisResults)
	if !ok {
		return nil, false, fmt.Errorf("actor: node %q is not an analysis sink", node)
	}
	results, ready := ar.Results()
	return results, ready, nil
}

func (c *Coordinator) handleGetDropoutData(r GetDropoutDataRequest) {
	results, ready, err := c.analysisResultsFor(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	if !ready {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q has no completed dropout analysis", r.Node))
		return
	}
	c.events <- DropoutDataReadyEvent{baseEvent{r.ReqID}, results}
}

func (c *Coordinator) handleGetSNRData(r GetSNRDataRequest) {
	results, ready, err := c.analysisResultsFor(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	if !ready {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q has no completed SNR analysis", r.Node))
		return
	}
	c.events <- SNRDataReadyEvent{baseEvent{r.ReqID}, results}
}

func (c *Coordinator) handleGetBurstLevelData(r GetBurstLevelDataRequest) {
	results, ready, err := c.analysisResultsFor(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	if !ready {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q has no completed burst-level analysis", r.Node))
		return
	}
	c.events <- BurstLevelDataReadyEvent{baseEvent{r.ReqID}, results}
}

func (c *Coordinator) handleGetLineSamples(r GetLineSamplesRequest) {
	v, err := c.renderedVFR(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	mapping := mapImageToField(v, r.OutputType, r.Index, r.Line, r.ImageWidth)
	if !mapping.Found {
		c.emitError(r.ReqID, "actor: could not map requested line to a field")
		return
	}
	line, ok := v.GetLine(mapping.Field, mapping.Line)
	if !ok {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q field %v has no line %d", r.Node, mapping.Field, mapping.Line))
		return
	}
	samples := append([]uint16(nil), line...)
	c.events <- LineSamplesReadyEvent{baseEvent{r.ReqID}, samples}
}

func (c *Coordinator) handleNavigateFrameLine(r NavigateFrameLineRequest) {
	v, err := c.renderedVFR(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	params := v.Parameters()
	fieldHeight := params.FieldHeight
	if fieldHeight <= 0 {
		c.emitError(r.ReqID, "actor: node has no field height")
		return
	}
	desc, ok := v.GetDescriptor(r.Field)
	if !ok {
		c.emitError(r.ReqID, fmt.Sprintf("actor: no such field %v", r.Field))
		return
	}

	newLine := r.Line + r.Direction
	if newLine >= 0 && newLine < fieldHeight {
		c.events <- FrameLineNavigationReadyEvent{baseEvent{r.ReqID}, r.Field, newLine}
		return
	}

	if r.OutputType == preview.Field {
		clamped := 0
		if newLine >= fieldHeight {
			clamped = fieldHeight - 1
		}
		c.events <- FrameLineNavigationReadyEvent{baseEvent{r.ReqID}, r.Field, clamped}
		return
	}

	first, second, fok := frameFields(v, desc.FrameNumber)
	if !fok {
		clamped := 0
		if newLine >= fieldHeight {
			clamped = fieldHeight - 1
		}
		c.events <- FrameLineNavigationReadyEvent{baseEvent{r.ReqID}, r.Field, clamped}
		return
	}
	companion := second
	if r.Field == second {
		companion = first
	}
	if newLine < 0 {
		c.events <- FrameLineNavigationReadyEvent{baseEvent{r.ReqID}, companion, fieldHeight - 1}
		return
	}
	c.events <- FrameLineNavigationReadyEvent{baseEvent{r.ReqID}, companion, 0}
}

func (c *Coordinator) handleSavePNG(r SavePNGRequest) {
	v, err := c.renderedVFR(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	first, second, ok := frameFields(v, r.Index)
	if !ok {
		fr := v.FieldRange()
		first = fr.Start + ids.FieldID(r.Index)
		second = first
	}
	img, err := preview.Render(v, r.OutputType, first, second)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	data, err := preview.EncodePNG(img)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	if err := writeFile(r.Filename, data); err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	c.events <- PNGSavedEvent{baseEvent{r.ReqID}, r.Filename}
}

// writeFile writes a rendered PNG to disk for a SavePNGRequest.
func writeFile(filename string, data []byte) error {
	return os.WriteFile(filename, data, 0644)
}

func (c *Coordinator) gatherTriggerInputs(node ids.NodeID) ([]vfr.VFR, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.dagState.Node(node)
	if !ok {
		return nil, fmt.Errorf("actor: node %q not found", node)
	}
	exec := dag.NewExecutor(c.dagState)
	inputs := make([]vfr.VFR, 0, len(n.InputNodeIDs))
	for i, pred := range n.InputNodeIDs {
		res, err := exec.ExecuteToNode(pred)
		if err != nil {
			return nil, fmt.Errorf("actor: node %q: input %d: %w", node, i, err)
		}
		idx := n.InputIndices[i]
		outs := res.Outputs[pred]
		if idx < 0 || idx >= len(outs) {
			continue
		}
		inputs = append(inputs, outs[idx])
	}
	return inputs, nil
}

func (c *Coordinator) handleTriggerStage(r TriggerStageRequest) {
	c.mu.Lock()
	n, ok := c.dagState.Node(r.Node)
	c.mu.Unlock()
	if !ok {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q not found", r.Node))
		return
	}
	trig, ok := n.Stage.(stage.Triggerable)
	if !ok {
		c.emitError(r.ReqID, fmt.Sprintf("actor: node %q does not support triggering", r.Node))
		return
	}

	inputs, err := c.gatherTriggerInputs(r.Node)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}

	c.triggerMu.Lock()
	c.activeTrigger = trig
	c.triggerMu.Unlock()
	defer func() {
		c.triggerMu.Lock()
		c.activeTrigger = nil
		c.triggerMu.Unlock()
	}()

	trig.SetProgressCallback(func(current, total uint64, message string) {
		c.events <- TriggerProgressEvent{baseEvent{r.ReqID}, current, total, message}
	})
	success, err := trig.Trigger(inputs, n.Parameters, observation.NewContext())
	trig.SetProgressCallback(nil)
	if err != nil {
		c.emitError(r.ReqID, err.Error())
		return
	}
	status := trig.TriggerStatus()
	if success {
		c.log.Info("trigger complete", "request_id", r.ReqID, "node", r.Node, "status", status)
	} else {
		c.log.Warning("trigger did not complete", "request_id", r.ReqID, "node", r.Node, "status", status)
	}
	c.events <- TriggerCompleteEvent{baseEvent{r.ReqID}, success, status}
}
