/*
NAME
  registry.go

DESCRIPTION
  registry.go implements a name -> stage factory registry, used so
  project files can reference stages by name without the project
  loader importing every stage package directly. Stage packages
  self-register via a blank import and a package-level func init(),
  mirroring the way database/sql drivers register themselves.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package registry provides a process-wide name -> stage.Stage factory
// map, populated by stage packages' func init() at program start
// (spec §4.11).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tbcorc/orc/stage"
)

// Factory constructs a new, zero-configured Stage instance.
type Factory func() stage.Stage

var (
	mu        sync.Mutex
	factories = make(map[string]Factory)
)

// Register adds factory under name. It panics if name is already
// registered, since a duplicate registration is a programming error
// detected at package-init time, not a runtime condition callers can
// recover from.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("registry: stage already registered: %s", name))
	}
	factories[name] = factory
}

// Create constructs a new Stage instance for name.
func Create(name string) (stage.Stage, error) {
	mu.Lock()
	factory, ok := factories[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown stage: %s", name)
	}
	return factory(), nil
}

// Has reports whether name is registered.
func Has(name string) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := factories[name]
	return ok
}

// Names returns all registered stage names, sorted.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultTransformStage names the dropout-correct transform, the
// centerpiece illustrative transform of this system (spec §4.9). No
// code in this module reads it.
const DefaultTransformStage = "dropout_correct"
