/*
NAME
  tbcio.go

DESCRIPTION
  tbcio.go implements buffered, chunked 16-bit sample I/O for raw TBC
  field data: a Writer that accumulates samples and flushes in large
  chunks (falling back to a direct write when a single call exceeds
  the buffer), and a Reader providing byte-addressed random access
  over the same chunking discipline.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package tbcio provides buffered 16-bit sample I/O for on-disk TBC
// field sources and sinks (stages/source/ldfile, stages/sink/ldsink).
package tbcio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is the default internal buffer size in bytes
// (4MiB), chosen to amortize syscall overhead over large sequential
// field reads/writes.
const DefaultBufferSize = 4 * 1024 * 1024

const sampleSize = 2 // bytes per uint16 sample

// Writer accumulates uint16 samples and writes them to disk in large
// chunks. A single Write call larger than the buffer bypasses
// buffering entirely (the "direct-write fast path").
type Writer struct {
	f            *os.File
	bufCapBytes  int
	buf          []uint16
	bytesWritten uint64
}

// NewWriter creates (truncating any existing file) and opens path for
// buffered writing, with an internal buffer of bufBytes bytes (0 uses
// DefaultBufferSize).
func NewWriter(path string, bufBytes int) (*Writer, error) {
	if bufBytes <= 0 {
		bufBytes = DefaultBufferSize
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("tbcio: create %q: %w", path, err)
	}
	return &Writer{
		f:           f,
		bufCapBytes: bufBytes,
		buf:         make([]uint16, 0, bufBytes/sampleSize),
	}, nil
}

// Write appends data to the internal buffer, flushing automatically
// when the buffer fills. A write larger than the buffer's capacity
// flushes any pending data, then writes data directly to the file
// without buffering it.
func (w *Writer) Write(data []uint16) error {
	if len(data) == 0 {
		return nil
	}
	if len(data)*sampleSize > w.bufCapBytes {
		if err := w.Flush(); err != nil {
			return err
		}
		if err := binary.Write(w.f, binary.LittleEndian, data); err != nil {
			return fmt.Errorf("tbcio: direct write: %w", err)
		}
		w.bytesWritten += uint64(len(data) * sampleSize)
		return nil
	}

	w.buf = append(w.buf, data...)
	if len(w.buf)*sampleSize >= w.bufCapBytes {
		return w.Flush()
	}
	return nil
}

// Flush writes any buffered data to disk.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := binary.Write(w.f, binary.LittleEndian, w.buf); err != nil {
		return fmt.Errorf("tbcio: flush: %w", err)
	}
	w.bytesWritten += uint64(len(w.buf) * sampleSize)
	w.buf = w.buf[:0]
	return nil
}

// Close flushes any buffered data and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// BytesWritten returns the total number of bytes written to disk so far.
func (w *Writer) BytesWritten() uint64 { return w.bytesWritten }

// BufferedBytes returns the number of bytes currently held unflushed.
func (w *Writer) BufferedBytes() int { return len(w.buf) * sampleSize }

// Reader provides byte-addressed random access over a file of uint16
// samples, refilling an internal buffer on small-read misses and
// reading large requests directly.
type Reader struct {
	f           *os.File
	size        int64
	bufCapBytes int
	buf         []uint16
	bufOffset   uint64 // byte offset of buf[0] in the file
}

// NewReader opens path for buffered random-access reading, with an
// internal buffer of bufBytes bytes (0 uses DefaultBufferSize).
func NewReader(path string, bufBytes int) (*Reader, error) {
	if bufBytes <= 0 {
		bufBytes = DefaultBufferSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tbcio: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("tbcio: stat %q: %w", path, err)
	}
	return &Reader{f: f, size: info.Size(), bufCapBytes: bufBytes}, nil
}

// FileSize returns the total file size in bytes.
func (r *Reader) FileSize() int64 { return r.size }

// ReadAt reads count uint16 samples starting at byteOffset, serving
// from the internal buffer when possible, reading large requests
// (over half the buffer capacity) directly, and refilling the buffer
// on a small-read miss.
func (r *Reader) ReadAt(byteOffset uint64, count int) ([]uint16, error) {
	want := int64(count) * sampleSize
	if int64(byteOffset)+want > r.size {
		return nil, fmt.Errorf("tbcio: read beyond end of file (offset %d, count %d, size %d)", byteOffset, count, r.size)
	}

	bufStart := r.bufOffset
	bufEnd := r.bufOffset + uint64(len(r.buf)*sampleSize)
	if byteOffset >= bufStart && byteOffset+uint64(want) <= bufEnd {
		off := int((byteOffset - bufStart) / sampleSize)
		out := make([]uint16, count)
		copy(out, r.buf[off:off+count])
		return out, nil
	}

	if int(want) > r.bufCapBytes/2 {
		out := make([]uint16, count)
		if err := r.readDirect(int64(byteOffset), out); err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := r.refill(byteOffset); err != nil {
		return nil, err
	}
	off := int((byteOffset - r.bufOffset) / sampleSize)
	if off+count > len(r.buf) {
		return nil, fmt.Errorf("tbcio: insufficient data in buffer after refill")
	}
	out := make([]uint16, count)
	copy(out, r.buf[off:off+count])
	return out, nil
}

func (r *Reader) readDirect(byteOffset int64, out []uint16) error {
	section := io.NewSectionReader(r.f, byteOffset, int64(len(out)*sampleSize))
	if err := binary.Read(section, binary.LittleEndian, out); err != nil {
		return fmt.Errorf("tbcio: direct read at offset %d: %w", byteOffset, err)
	}
	return nil
}

func (r *Reader) refill(byteOffset uint64) error {
	elemsToRead := r.bufCapBytes / sampleSize
	remaining := uint64(r.size) - byteOffset
	bytesToRead := int64(elemsToRead) * sampleSize
	if bytesToRead > int64(remaining) {
		bytesToRead = int64(remaining)
	}
	n := int(bytesToRead / sampleSize)

	r.buf = r.buf[:0]
	if cap(r.buf) < n {
		r.buf = make([]uint16, n)
	} else {
		r.buf = r.buf[:n]
	}
	section := io.NewSectionReader(r.f, int64(byteOffset), bytesToRead)
	br := bufio.NewReaderSize(section, r.bufCapBytes)
	if err := binary.Read(br, binary.LittleEndian, r.buf); err != nil {
		return fmt.Errorf("tbcio: refill buffer at offset %d: %w", byteOffset, err)
	}
	r.bufOffset = byteOffset
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }
