// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package classifier decides how an incoming question should be resolved.
//
// Classification is purely lexical and fully deterministic: identical
// input text always yields identical classification, with no LLM
// involvement. This keeps the direct path reproducible and testable.
package classifier

import (
	"strings"
	"unicode"
)

// Route selects the resolution path for a question.
type Route string

const (
	// RouteDirect means one primitive invocation can satisfy the question.
	RouteDirect Route = "direct"

	// RouteAgent means the question needs multi-step reasoning over
	// primitive results.
	RouteAgent Route = "agent"
)

// Classification is the outcome of classifying one question.
type Classification struct {
	// Route is the chosen resolution path.
	Route Route

	// WantsChart indicates visualization vocabulary was present.
	WantsChart bool
}

// reasoningWords signal open-ended explanation questions. They take
// precedence over direct vocabulary: "why was the survival percentage
// higher for women" is an agent question even though it says
// "percentage".
var reasoningWords = []string{
	"why", "explain", "factor", "factors", "influence", "influenced",
	"reason", "reasons", "cause", "caused", "insight", "insights",
	"think", "opinion", "tell", "story",
}

// directWords signal a single-statistic question.
var directWords = []string{
	"percentage", "percent", "proportion", "count", "many",
	"average", "mean", "median", "quartile", "histogram",
	"distribution", "correlation", "correlate", "relationship",
	"rate", "summary", "overview", "breakdown", "oldest", "youngest",
	"embarked", "port", "ports",
}

// directPhrases are multi-word direct triggers.
var directPhrases = []string{
	"how many", "how much", "survival rate", "compare",
}

// chartWords signal that a visualization should accompany the answer.
// Mirrors the visualization vocabulary the standalone analyzer matched,
// plus "distribution".
var chartWords = []string{
	"show", "plot", "chart", "graph", "histogram", "visualize",
	"visualise", "visualization", "display", "distribution", "draw",
	"scatter",
}

// Classify inspects a question and decides the resolution route and
// whether a chart is implied.
//
// Description:
//
//	Matching is token-based for single words and substring-based for
//	phrases, on the lowercased question. Precedence: reasoning
//	vocabulary forces the agent route; otherwise direct vocabulary
//	selects the direct path; with no match at all the agent is the
//	fallback. WantsChart is signaled independently of the route.
//
// Inputs:
//
//	question - raw question text
//
// Outputs:
//
//	Classification - deterministic route and chart flag
func Classify(question string) Classification {
	normalized := strings.ToLower(question)
	tokens := tokenSet(normalized)

	wantsChart := matchesAny(tokens, normalized, chartWords, nil)

	if matchesAny(tokens, normalized, reasoningWords, nil) {
		return Classification{Route: RouteAgent, WantsChart: wantsChart}
	}
	if matchesAny(tokens, normalized, directWords, directPhrases) {
		return Classification{Route: RouteDirect, WantsChart: wantsChart}
	}

	// No confident direct pattern: let the agent reason about it.
	return Classification{Route: RouteAgent, WantsChart: wantsChart}
}

// tokenSet splits normalized text into a lookup set of words.
func tokenSet(normalized string) map[string]bool {
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func matchesAny(tokens map[string]bool, normalized string, words, phrases []string) bool {
	for _, w := range words {
		if tokens[w] {
			return true
		}
	}
	for _, p := range phrases {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
