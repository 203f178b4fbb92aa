/*
DESCRIPTION
  observation.go provides the Observation side-channel: a typed
  (field, namespace, key) -> value store produced as a by-product of
  DAG execution and consumed by analysis sinks and GUI presenters.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package observation provides the typed observation side-channel
// produced as a by-product of stage execution: a (field, namespace,
// key) -> Value store, plus the Observer contract that stages and
// transforms use to populate it.
package observation

import (
	"fmt"
	"sync"

	"github.com/tbcorc/orc/ids"
)

// Common namespaces used by built-in observers and sinks.
const (
	NSBiphase      = "biphase"
	NSWhiteSNR     = "white_snr"
	NSBurstLevel   = "burst_level"
	NSFMCode       = "fm_code"
	NSWhiteFlag    = "white_flag"
	NSClosedCaption = "closed_caption"
	NSExport       = "export"
)

type valueKind int

const (
	kindInt32 valueKind = iota
	kindInt64
	kindUint32
	kindBool
	kindDouble
	kindString
)

// Value is a closed tagged union over the scalar types an observation
// may carry. It is never extended at runtime; consumers use the typed
// accessors below, which report ok=false on a kind mismatch.
type Value struct {
	kind valueKind
	i    int64
	u    uint32
	b    bool
	d    float64
	s    string
}

// Int32 constructs an int32-valued Value.
func Int32(v int32) Value { return Value{kind: kindInt32, i: int64(v)} }

// Int64 constructs an int64-valued Value.
func Int64(v int64) Value { return Value{kind: kindInt64, i: v} }

// Uint32 constructs a uint32-valued Value.
func Uint32(v uint32) Value { return Value{kind: kindUint32, u: v} }

// Bool constructs a bool-valued Value.
func Bool(v bool) Value { return Value{kind: kindBool, b: v} }

// Double constructs a float64-valued Value.
func Double(v float64) Value { return Value{kind: kindDouble, d: v} }

// String constructs a string-valued Value.
func String(v string) Value { return Value{kind: kindString, s: v} }

// AsInt32 returns the value as an int32 if it was constructed with Int32.
func (v Value) AsInt32() (int32, bool) {
	if v.kind != kindInt32 {
		return 0, false
	}
	return int32(v.i), true
}

// AsInt64 returns the value as an int64 if it was constructed with Int64.
func (v Value) AsInt64() (int64, bool) {
	if v.kind != kindInt64 {
		return 0, false
	}
	return v.i, true
}

// AsUint32 returns the value as a uint32 if it was constructed with Uint32.
func (v Value) AsUint32() (uint32, bool) {
	if v.kind != kindUint32 {
		return 0, false
	}
	return v.u, true
}

// AsBool returns the value as a bool if it was constructed with Bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != kindBool {
		return false, false
	}
	return v.b, true
}

// AsDouble returns the value as a float64 if it was constructed with Double.
func (v Value) AsDouble() (float64, bool) {
	if v.kind != kindDouble {
		return 0, false
	}
	return v.d, true
}

// AsString returns the value as a string if it was constructed with String.
func (v Value) AsString() (string, bool) {
	if v.kind != kindString {
		return "", false
	}
	return v.s, true
}

func (v Value) String() string {
	switch v.kind {
	case kindInt32, kindInt64:
		return fmt.Sprintf("%d", v.i)
	case kindUint32:
		return fmt.Sprintf("%d", v.u)
	case kindBool:
		return fmt.Sprintf("%t", v.b)
	case kindDouble:
		return fmt.Sprintf("%g", v.d)
	case kindString:
		return v.s
	default:
		return "<invalid>"
	}
}

type key struct {
	field ids.FieldID
	ns    string
	k     string
}

// Context is a mutable (field_id, namespace, key) -> Value map produced
// as a by-product of execution.
type Context struct {
	mu   sync.Mutex
	vals map[key]Value
}

// NewContext returns an empty observation Context.
func NewContext() *Context {
	return &Context{vals: make(map[key]Value)}
}

// Set records value for (field, namespace, k), overwriting any value
// previously recorded for that triple. A normal run sets each triple
// exactly once; a re-invocation (e.g. a second render pass) overwrites
// the prior value rather than erroring, per the ordering guarantee in
// spec §5.
func (c *Context) Set(field ids.FieldID, namespace, k string, value Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[key{field, namespace, k}] = value
	return nil
}

// Get returns the value for (field, namespace, k), if present.
func (c *Context) Get(field ids.FieldID, namespace, k string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key{field, namespace, k}]
	return v, ok
}

// Clear removes all observations from the Context.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals = make(map[key]Value)
}

// Len returns the number of observations currently recorded.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vals)
}
