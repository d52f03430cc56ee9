// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"strings"

	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// assemble enforces the chart contract on a raw result.
//
// # Description
//
// The pipeline may already have produced a chart; the latest one wins.
// When the question asked for a visualization but none was produced,
// the assembler tries to render one itself from the column the question
// references. When it cannot infer a column, the answer ships text-only
// rather than failing a request that already has an answer.
func (e *Engine) assemble(result *AskResult, question string, wantsChart bool) {
	for i := len(result.Outcomes) - 1; i >= 0; i-- {
		if c := result.Outcomes[i].Result.Chart; c != nil {
			result.Chart = c
			return
		}
	}

	if !wantsChart {
		return
	}

	call, ok := e.inferChartCall(question)
	if !ok {
		e.log.Debug("chart requested but no column inferred", "question", question)
		return
	}
	chartResult, err := e.registry.Invoke(e.ds, call)
	if err != nil {
		e.log.Warn("chart enrichment failed", "primitive", call.Name, "error", err)
		return
	}
	result.Outcomes = append(result.Outcomes, analysis.Outcome{Call: call, Result: chartResult})
	result.Chart = chartResult.Chart
}

// chartSynonyms is the vocabulary used to infer which column a chart
// request refers to.
var chartSynonyms = []struct {
	column string
	terms  []string
}{
	{"Age", []string{"age", "ages"}},
	{"Fare", []string{"fare", "fares", "price", "cost", "ticket"}},
	{"Sex", []string{"sex", "gender", "male", "female", "men", "women"}},
	{"Pclass", []string{"class", "classes", "pclass"}},
	{"Embarked", []string{"embarked", "embark", "port", "ports"}},
	{"SibSp", []string{"sibling", "siblings", "spouse", "spouses"}},
	{"Parch", []string{"parent", "parents"}},
}

// inferChartCall picks a chart primitive for a question that asked for
// a visualization without naming a chartable computation.
//
// Numeric columns render as histograms. Categorical columns render as
// bar charts, switching to survival rates when the question mentions
// survival.
func (e *Engine) inferChartCall(question string) (analysis.Call, bool) {
	normalized := strings.ToLower(question)

	for _, entry := range chartSynonyms {
		if !e.ds.HasColumn(entry.column) {
			continue
		}
		if !containsAnyWord(normalized, entry.terms) {
			continue
		}
		t, _ := e.ds.TypeOf(entry.column)
		switch t {
		case dataset.ColumnNumeric:
			return analysis.Call{
				Name:   analysis.PrimHistogramChart,
				Params: map[string]any{"column": entry.column},
			}, true
		case dataset.ColumnCategorical:
			metric := "count"
			if strings.Contains(normalized, "surviv") {
				metric = "survival_rate"
			}
			return analysis.Call{
				Name:   analysis.PrimBarChart,
				Params: map[string]any{"column": entry.column, "metric": metric},
			}, true
		}
	}
	return analysis.Call{}, false
}

func containsAnyWord(normalized string, words []string) bool {
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
