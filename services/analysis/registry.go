// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// Registry manages primitive registration and invocation.
//
// Every invocation passes through parameter validation against the
// primitive's declared schema and the dataset's actual columns. Callers
// never reach a primitive with unvalidated input.
//
// Thread Safety:
//
//	Registry is fully thread-safe. All methods can be called concurrently.
type Registry struct {
	mu sync.RWMutex

	// byName maps primitive names to instances.
	byName map[string]Primitive
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Primitive)}
}

// Register adds a primitive to the registry.
//
// Description:
//
//	Registers a primitive under its Name(). A primitive with the same
//	name replaces the existing entry. Nil primitives are ignored.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Register(p Primitive) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[p.Name()] = p
}

// Get returns a primitive by name.
//
// Outputs:
//
//	Primitive - the registered primitive, or nil if not found
//	bool - true if the primitive was found
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Get(name string) (Primitive, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// Names returns all registered primitive names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns definitions for all registered primitives, sorted
// by name for a stable catalogue order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.byName))
	for _, p := range r.byName {
		defs = append(defs, p.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Count returns the number of registered primitives.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Invoke validates and executes one primitive call against the dataset.
//
// Description:
//
//	Looks up the primitive, validates the call's parameters against the
//	declared schema and the dataset's columns, applies defaults, and
//	invokes the primitive. This is the single gate through which the
//	resolver, the agent, and the assembler reach the dataset.
//
// Inputs:
//
//	ds - the loaded dataset
//	call - the invocation request
//
// Outputs:
//
//	*Result - the primitive's result
//	error - ErrUnknownPrimitive, ErrInvalidParameter, or ErrComputation
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Invoke(ds *dataset.Dataset, call Call) (*Result, error) {
	p, ok := r.Get(call.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, call.Name)
	}

	params, err := validateParams(ds, p.Definition(), call.Params)
	if err != nil {
		return nil, err
	}

	return p.Invoke(ds, params)
}
