// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis provides the catalogue of named, parameter-validated
// statistical and chart-producing primitives over the passenger dataset.
//
// Every primitive is pure: invoking it twice with the same dataset and
// parameters yields the same result, and no primitive mutates the dataset
// or touches the filesystem. Chart primitives return an encoded image so
// the caller controls persistence.
//
// Parameters are always validated against the declared schema and the
// dataset's known columns before a primitive runs. This is what makes the
// catalogue safe to expose to an LLM: requests are interpreted against the
// schema, never executed as code.
//
// Thread Safety:
//
//	All types in this package are designed for concurrent use.
package analysis

import (
	"errors"

	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// Sentinel errors for primitive invocation.
var (
	// ErrUnknownPrimitive indicates the requested primitive is not in the
	// catalogue.
	ErrUnknownPrimitive = errors.New("unknown primitive")

	// ErrInvalidParameter indicates a parameter is absent from the schema
	// or its value is outside the declared domain.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrComputation indicates a numerically degenerate case such as an
	// empty column or zero variance.
	ErrComputation = errors.New("computation error")
)

// ParamType is the JSON type of a primitive parameter.
type ParamType string

const (
	// ParamTypeString is a string parameter.
	ParamTypeString ParamType = "string"

	// ParamTypeInt is an integer parameter.
	ParamTypeInt ParamType = "integer"
)

// ColumnKind constrains a string parameter to dataset columns of a kind.
type ColumnKind string

const (
	// KindNone means the parameter is not a column reference.
	KindNone ColumnKind = ""

	// KindAnyColumn accepts any existing column.
	KindAnyColumn ColumnKind = "any"

	// KindNumericColumn accepts numeric columns only.
	KindNumericColumn ColumnKind = "numeric"

	// KindCategoricalColumn accepts categorical columns only.
	KindCategoricalColumn ColumnKind = "categorical"
)

// ParamDef declares a single primitive parameter.
type ParamDef struct {
	// Type is the parameter's JSON type.
	Type ParamType `json:"type"`

	// Description explains the parameter to the LLM.
	Description string `json:"description"`

	// Required indicates the parameter must be provided.
	Required bool `json:"required"`

	// Enum restricts values to a fixed set.
	Enum []string `json:"enum,omitempty"`

	// Column constrains the value to dataset columns of the given kind.
	Column ColumnKind `json:"column,omitempty"`

	// Default is applied when an optional parameter is absent.
	Default any `json:"default,omitempty"`
}

// Definition describes a primitive's interface.
//
// Definitions are serialized into the LLM tool catalogue, so names and
// descriptions double as the agent-facing documentation.
type Definition struct {
	// Name is the unique primitive identifier.
	Name string `json:"name"`

	// Description explains what the primitive computes.
	Description string `json:"description"`

	// Parameters declares the input parameters.
	Parameters map[string]ParamDef `json:"parameters"`

	// ProducesChart indicates the result carries an encoded image.
	ProducesChart bool `json:"produces_chart"`
}

// Chart is an encoded chart artifact.
type Chart struct {
	// ImageBase64 is the PNG image, base64 encoded.
	ImageBase64 string `json:"image_base64"`

	// Caption describes the chart and always references at least one
	// dataset column by name.
	Caption string `json:"caption"`

	// Kind is the chart family: histogram, bar, or scatter.
	Kind string `json:"kind"`
}

// Result is the typed outcome of one primitive invocation.
//
// Result is immutable once produced.
type Result struct {
	// Summary is a human-readable sentence describing the outcome.
	Summary string `json:"summary"`

	// Values holds the computed figures keyed by metric name.
	Values map[string]any `json:"values,omitempty"`

	// Chart is present for chart-producing primitives.
	Chart *Chart `json:"chart,omitempty"`
}

// Call is a validated primitive invocation request.
//
// Calls are constructed by the resolver or the agent, never directly from
// raw text: parameters are resolved against the dataset's known columns
// and the catalogue before execution.
type Call struct {
	// Name is the primitive to invoke.
	Name string `json:"name"`

	// Params are the invocation parameters.
	Params map[string]any `json:"params"`
}

// Outcome pairs a call with its result. A sequence of outcomes forms the
// agent's trace.
type Outcome struct {
	Call   Call    `json:"call"`
	Result *Result `json:"result"`
}

// Primitive is an executable catalogue entry.
//
// Implementations must be pure with respect to the dataset and safe for
// concurrent use.
type Primitive interface {
	// Name returns the unique primitive name.
	Name() string

	// Definition returns the parameter schema.
	Definition() Definition

	// Invoke runs the primitive. Parameters are validated by the
	// registry before this is called.
	Invoke(ds *dataset.Dataset, params map[string]any) (*Result, error)
}

// primitiveFunc adapts a function to the Primitive interface.
type primitiveFunc struct {
	def Definition
	fn  func(ds *dataset.Dataset, params map[string]any) (*Result, error)
}

func (p *primitiveFunc) Name() string           { return p.def.Name }
func (p *primitiveFunc) Definition() Definition { return p.def }

func (p *primitiveFunc) Invoke(ds *dataset.Dataset, params map[string]any) (*Result, error) {
	return p.fn(ds, params)
}
