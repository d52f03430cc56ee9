// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolver maps a direct question to exactly one primitive
// invocation.
//
// Resolution is deterministic: the same question against the same dataset
// always produces the same primitive call and the same answer. When no
// trigger pattern matches, Resolve returns ErrNoMatchingPrimitive; this is
// a routing signal for the orchestrator to hand the question to the
// reasoning agent, never an error surfaced to the caller.
package resolver

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// ErrNoMatchingPrimitive indicates the question was classified as direct
// but no primitive trigger pattern matched its parameters. The caller
// reroutes to the agent path.
var ErrNoMatchingPrimitive = errors.New("no matching primitive")

// Resolution is the outcome of a successful direct resolution.
type Resolution struct {
	// Answer is the formatted textual answer.
	Answer string

	// Outcome records the single primitive call and its result.
	Outcome analysis.Outcome
}

// Resolver resolves direct questions against the primitive catalogue.
//
// Thread Safety: Resolver is immutable after construction and safe for
// concurrent use.
type Resolver struct {
	ds       *dataset.Dataset
	registry *analysis.Registry
}

// New creates a Resolver over the given dataset and catalogue.
func New(ds *dataset.Dataset, registry *analysis.Registry) *Resolver {
	return &Resolver{ds: ds, registry: registry}
}

// columnSynonyms maps question vocabulary to dataset columns. Order
// matters: earlier entries win when a question references several
// columns and a pattern needs only one.
var columnSynonyms = []struct {
	column string
	terms  []string
}{
	{"Age", []string{"age", "ages", "old", "older", "young", "oldest", "youngest"}},
	{"Fare", []string{"fare", "fares", "price", "prices", "cost", "paid", "ticket"}},
	{"Sex", []string{"sex", "gender", "male", "female", "man", "men", "woman", "women"}},
	{"Pclass", []string{"class", "classes", "pclass"}},
	{"Embarked", []string{"embark", "embarked", "embarkation", "port", "ports", "board", "boarded", "southampton", "cherbourg", "queenstown"}},
	{"SibSp", []string{"sibling", "siblings", "spouse", "spouses", "sibsp"}},
	{"Parch", []string{"parent", "parents", "parch"}},
	{"Survived", []string{"survived", "survive", "survivors", "survival"}},
}

// categoricalValues maps question vocabulary to a (column, value) pair
// for percentage questions.
var categoricalValues = []struct {
	column string
	value  string
	terms  []string
}{
	{"Sex", "male", []string{"male", "men", "man"}},
	{"Sex", "female", []string{"female", "women", "woman"}},
	{"Pclass", "1", []string{"first", "1st"}},
	{"Pclass", "2", []string{"second", "2nd"}},
	{"Pclass", "3", []string{"third", "3rd"}},
	{"Embarked", "S", []string{"southampton"}},
	{"Embarked", "C", []string{"cherbourg"}},
	{"Embarked", "Q", []string{"queenstown"}},
}

// Resolve maps a question to one primitive invocation and formats the
// result.
//
// Description:
//
//	Trigger patterns are tried in a fixed priority order so that a
//	question matching several phrasings resolves the same way every
//	time: chart requests first (histogram, scatter), then grouped
//	survival rates, percentage by category, numeric summaries,
//	correlation, counts, and finally the dataset overview.
//
// Inputs:
//
//	question - the raw question text (already classified as direct)
//
// Outputs:
//
//	*Resolution - the answer and the recorded primitive outcome
//	error - ErrNoMatchingPrimitive when no pattern applies, or a
//	        wrapped invocation error
func (r *Resolver) Resolve(question string) (*Resolution, error) {
	q := newParsedQuestion(question)

	for _, pattern := range directPatterns {
		call, ok := pattern.match(q, r.ds)
		if !ok {
			continue
		}
		result, err := r.registry.Invoke(r.ds, call)
		if err != nil {
			// A pattern that matched lexically but failed validation
			// (for example a value outside the column's domain) is
			// treated as unresolvable, not as a caller-facing error.
			return nil, fmt.Errorf("%w: %s rejected: %v", ErrNoMatchingPrimitive, call.Name, err)
		}
		return &Resolution{
			Answer:  result.Summary,
			Outcome: analysis.Outcome{Call: call, Result: result},
		}, nil
	}

	return nil, fmt.Errorf("%w: no direct pattern matched %q", ErrNoMatchingPrimitive, question)
}

// parsedQuestion caches the lexical views a pattern needs.
type parsedQuestion struct {
	normalized string
	tokens     map[string]bool
}

func newParsedQuestion(question string) parsedQuestion {
	normalized := strings.ToLower(question)
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}
	return parsedQuestion{normalized: normalized, tokens: tokens}
}

func (q parsedQuestion) has(words ...string) bool {
	for _, w := range words {
		if q.tokens[w] {
			return true
		}
	}
	return false
}

func (q parsedQuestion) contains(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(q.normalized, p) {
			return true
		}
	}
	return false
}

// columns returns the dataset columns the question references, in
// synonym-table order.
func (q parsedQuestion) columns(ds *dataset.Dataset, kind dataset.ColumnType) []string {
	var out []string
	for _, entry := range columnSynonyms {
		if !ds.HasColumn(entry.column) {
			continue
		}
		if kind != "" {
			if t, _ := ds.TypeOf(entry.column); t != kind {
				continue
			}
		}
		if q.has(entry.terms...) {
			out = append(out, entry.column)
		}
	}
	return out
}

// categoricalValue finds a (column, value) pair referenced by the question.
func (q parsedQuestion) categoricalValue() (string, string, bool) {
	for _, entry := range categoricalValues {
		if q.has(entry.terms...) {
			return entry.column, entry.value, true
		}
	}
	return "", "", false
}

// directPattern is one trigger rule in the resolution priority order.
type directPattern struct {
	name  string
	match func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool)
}

// directPatterns is the explicit tie-break order. Chart phrasings come
// first so "show a histogram of ages" renders a chart even though "age"
// also matches the numeric-summary vocabulary.
var directPatterns = []directPattern{
	{
		name: "histogram",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("histogram") && !q.has("distribution") {
				return analysis.Call{}, false
			}
			cols := q.columns(ds, dataset.ColumnNumeric)
			if len(cols) == 0 {
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimHistogramChart,
				Params: map[string]any{"column": cols[0]},
			}, true
		},
	},
	{
		name: "scatter",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("scatter") && !q.contains(" against ", " versus ", " vs ") {
				return analysis.Call{}, false
			}
			cols := q.columns(ds, dataset.ColumnNumeric)
			if len(cols) < 2 {
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimScatterChart,
				Params: map[string]any{"column_x": cols[0], "column_y": cols[1]},
			}, true
		},
	},
	{
		name: "survival by group",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("survival", "survive", "survived", "survivors") {
				return analysis.Call{}, false
			}
			cols := q.columns(ds, dataset.ColumnCategorical)
			if len(cols) == 0 {
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimGroupBySurvival,
				Params: map[string]any{"column": cols[0]},
			}, true
		},
	},
	{
		name: "percentage by category",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("percentage", "percent", "proportion", "share") {
				return analysis.Call{}, false
			}
			column, value, ok := q.categoricalValue()
			if !ok {
				// "What percentage survived?" has no category value; the
				// overall survival rate lives in the dataset overview.
				if q.has("survival", "survive", "survived", "survivors") {
					return analysis.Call{Name: analysis.PrimDatasetOverview}, true
				}
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimPercentageByCategory,
				Params: map[string]any{"column": column, "value": value},
			}, true
		},
	},
	{
		name: "numeric summary",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("average", "mean", "median", "quartile", "oldest", "youngest", "typical") {
				return analysis.Call{}, false
			}
			cols := q.columns(ds, dataset.ColumnNumeric)
			if len(cols) == 0 {
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimNumericSummary,
				Params: map[string]any{"column": cols[0]},
			}, true
		},
	},
	{
		name: "correlation",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("correlation", "correlate", "correlated", "relationship") {
				return analysis.Call{}, false
			}
			cols := q.columns(ds, dataset.ColumnNumeric)
			if len(cols) < 2 {
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimCorrelation,
				Params: map[string]any{"column_x": cols[0], "column_y": cols[1]},
			}, true
		},
	},
	{
		name: "embarkation",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.has("embark", "embarked", "embarkation", "port", "ports", "boarded") {
				return analysis.Call{}, false
			}
			return analysis.Call{Name: analysis.PrimEmbarkationSummary}, true
		},
	},
	{
		name: "count by category",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if !q.contains("how many") && !q.has("count", "breakdown") {
				return analysis.Call{}, false
			}
			cols := q.columns(ds, dataset.ColumnCategorical)
			if len(cols) == 0 {
				return analysis.Call{}, false
			}
			return analysis.Call{
				Name:   analysis.PrimCountByCategory,
				Params: map[string]any{"column": cols[0]},
			}, true
		},
	},
	{
		name: "overview",
		match: func(q parsedQuestion, ds *dataset.Dataset) (analysis.Call, bool) {
			if q.has("overview", "summary", "statistics") ||
				(q.contains("how many") && q.has("passengers", "passenger", "people")) {
				return analysis.Call{Name: analysis.PrimDatasetOverview}, true
			}
			return analysis.Call{}, false
		},
	},
}
