/*
DESCRIPTION
  param.go provides the typed parameter-value and descriptor system
  used by stage configuration (spec §4.2).

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package param provides typed stage parameter values, the descriptors
// that constrain them, and validation against those constraints.
package param

import "fmt"

// Type identifies the semantic type of a parameter value.
type Type int

// Supported parameter types.
const (
	TypeInt Type = iota
	TypeFloat
	TypeBool
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a typed parameter value supplied by a caller to configure a
// stage. Exactly one field is meaningful, selected by Type.
type Value struct {
	Type Type
	I    int64
	F    float64
	B    bool
	S    string
}

// Int constructs an int-valued parameter Value.
func Int(v int64) Value { return Value{Type: TypeInt, I: v} }

// Float constructs a float-valued parameter Value.
func Float(v float64) Value { return Value{Type: TypeFloat, F: v} }

// Bool constructs a bool-valued parameter Value.
func Bool(v bool) Value { return Value{Type: TypeBool, B: v} }

// String constructs a string-valued parameter Value.
func String(v string) Value { return Value{Type: TypeString, S: v} }

// Descriptor constrains the legal values of one named parameter.
type Descriptor struct {
	Name     string
	Type     Type
	Required bool

	// Min/Max bound TypeInt and TypeFloat values; each applies only when
	// its HasMin/HasMax flag is set.
	Min, Max float64
	HasMin   bool
	HasMax   bool

	// Default records the descriptor's default value. Validate does not
	// read it and does not fill it into a map that omits Name.
	Default Value

	// AllowedStrings restricts a TypeString value to one of this set.
	// Empty means unrestricted.
	AllowedStrings []string

	// DependsOn, when non-empty, names another parameter whose value
	// must equal DependsOnValue for this descriptor to apply (i.e. be
	// visible/required) at all.
	DependsOn      string
	DependsOnValue Value
}

// Validate checks v against d's constraints.
func (d Descriptor) Validate(v Value) error {
	if v.Type != d.Type {
		return fmt.Errorf("param: %s: expected type %s, got %s", d.Name, d.Type, v.Type)
	}
	switch d.Type {
	case TypeInt:
		if d.HasMin && float64(v.I) < d.Min {
			return fmt.Errorf("param: %s: %d below minimum %g", d.Name, v.I, d.Min)
		}
		if d.HasMax && float64(v.I) > d.Max {
			return fmt.Errorf("param: %s: %d above maximum %g", d.Name, v.I, d.Max)
		}
	case TypeFloat:
		if d.HasMin && v.F < d.Min {
			return fmt.Errorf("param: %s: %g below minimum %g", d.Name, v.F, d.Min)
		}
		if d.HasMax && v.F > d.Max {
			return fmt.Errorf("param: %s: %g above maximum %g", d.Name, v.F, d.Max)
		}
	case TypeString:
		if len(d.AllowedStrings) > 0 && !contains(d.AllowedStrings, v.S) {
			return fmt.Errorf("param: %s: %q not among allowed values %v", d.Name, v.S, d.AllowedStrings)
		}
	}
	return nil
}

// dependencyMet reports whether d applies at all given m: a descriptor
// with no DependsOn always applies; one with a DependsOn applies only
// when m holds that exact value for the named parameter.
func dependencyMet(m Map, d Descriptor) bool {
	if d.DependsOn == "" {
		return true
	}
	dep, ok := m[d.DependsOn]
	if !ok {
		return false
	}
	return valuesEqual(dep, d.DependsOnValue)
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeInt:
		return a.I == b.I
	case TypeFloat:
		return a.F == b.F
	case TypeBool:
		return a.B == b.B
	case TypeString:
		return a.S == b.S
	default:
		return false
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Map is the set of parameter values supplied to configure a stage,
// keyed by descriptor name.
type Map map[string]Value

// Validate checks m against descs: every required descriptor must be
// present, no unknown keys are allowed, and
// every present value must satisfy its descriptor's constraints. All
// failures are accumulated and returned together.
func Validate(m Map, descs []Descriptor) error {
	var errs validationErrors
	known := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		known[d.Name] = d
	}
	for k := range m {
		if _, ok := known[k]; !ok {
			errs = append(errs, fmt.Errorf("param: unknown key %q", k))
		}
	}
	for _, d := range descs {
		if !dependencyMet(m, d) {
			continue
		}
		v, ok := m[d.Name]
		if !ok {
			if d.Required {
				errs = append(errs, fmt.Errorf("param: missing required key %q", d.Name))
			}
			continue
		}
		if err := d.Validate(v); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validationErrors accumulates multiple parameter validation failures
// into a single error, reporting every failure rather than only the
// first.
type validationErrors []error

func (e validationErrors) Error() string {
	s := fmt.Sprintf("%d parameter error(s):", len(e))
	for _, err := range e {
		s += "\n  " + err.Error()
	}
	return s
}
