// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	header := []string{"PassengerId", "Survived", "Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked"}
	records := [][]string{
		{"1", "0", "3", "male", "22", "1", "0", "7.25", "S"},
		{"2", "1", "1", "female", "38", "1", "0", "71.28", "C"},
		{"3", "1", "3", "female", "26", "0", "0", "7.92", "S"},
		{"4", "1", "1", "female", "35", "1", "0", "53.1", "S"},
		{"5", "0", "3", "male", "35", "0", "0", "8.05", "S"},
		{"6", "0", "3", "male", "", "0", "0", "8.46", "Q"},
		{"7", "0", "1", "male", "54", "0", "0", "51.86", "S"},
		{"8", "0", "3", "male", "2", "3", "1", "21.07", "S"},
		{"9", "1", "3", "female", "27", "0", "2", "11.13", "S"},
		{"10", "1", "2", "female", "14", "1", "0", "30.07", "C"},
	}
	ds, err := dataset.FromRecords(header, records)
	if err != nil {
		t.Fatalf("failed to build test dataset: %v", err)
	}
	return New(ds, analysis.DefaultRegistry())
}

func TestResolver_PrimitiveSelection(t *testing.T) {
	r := testResolver(t)

	cases := []struct {
		name      string
		question  string
		primitive string
	}{
		{"percentage male", "What percentage of passengers were male?", analysis.PrimPercentageByCategory},
		{"percentage first class", "What proportion of passengers travelled in first class?", analysis.PrimPercentageByCategory},
		{"overall survival percentage", "What percentage of passengers survived?", analysis.PrimDatasetOverview},
		{"survival by class", "What was the survival rate by passenger class?", analysis.PrimGroupBySurvival},
		{"survival by gender", "Did more women survive than men?", analysis.PrimGroupBySurvival},
		{"average age", "What was the average age of passengers?", analysis.PrimNumericSummary},
		{"median fare", "What was the median fare paid?", analysis.PrimNumericSummary},
		{"age histogram", "Show me a histogram of passenger ages", analysis.PrimHistogramChart},
		{"fare distribution", "What does the fare distribution look like?", analysis.PrimHistogramChart},
		{"age fare scatter", "Plot age vs fare as a scatter", analysis.PrimScatterChart},
		{"age fare correlation", "Is there a correlation between age and fare?", analysis.PrimCorrelation},
		{"embarkation", "Which ports did passengers embark from?", analysis.PrimEmbarkationSummary},
		{"count by class", "Give me a count of passengers per class", analysis.PrimCountByCategory},
		{"passenger count", "How many passengers are in the dataset?", analysis.PrimDatasetOverview},
		{"overview", "Give me an overview of the dataset", analysis.PrimDatasetOverview},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := r.Resolve(tc.question)
			if err != nil {
				t.Fatalf("expected resolution, got error: %v", err)
			}
			if res.Outcome.Call.Name != tc.primitive {
				t.Errorf("question %q resolved to %s, want %s",
					tc.question, res.Outcome.Call.Name, tc.primitive)
			}
			if res.Answer == "" {
				t.Error("expected a non-empty answer")
			}
		})
	}
}

func TestResolver_ChartPhrasingsWinTieBreaks(t *testing.T) {
	r := testResolver(t)

	// "average" alone would hit the numeric summary, but the chart
	// phrasing takes priority.
	res, err := r.Resolve("Show a histogram of the average passenger age")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome.Call.Name != analysis.PrimHistogramChart {
		t.Errorf("resolved to %s, want %s", res.Outcome.Call.Name, analysis.PrimHistogramChart)
	}
	if res.Outcome.Result.Chart == nil {
		t.Fatal("expected a chart artifact")
	}
	if !strings.Contains(res.Outcome.Result.Chart.Caption, "Age") {
		t.Errorf("caption %q should name the plotted column", res.Outcome.Result.Chart.Caption)
	}
}

func TestResolver_ColumnSynonyms(t *testing.T) {
	r := testResolver(t)

	res, err := r.Resolve("What was the average ticket price?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Outcome.Call.Params["column"]; got != "Fare" {
		t.Errorf("expected ticket price to map to Fare, got %v", got)
	}
}

func TestResolver_NoMatch(t *testing.T) {
	r := testResolver(t)

	for _, question := range []string{
		"Tell me something interesting",
		"What was the weather like that night?",
		"histogram of cabins please", // no numeric column referenced
	} {
		_, err := r.Resolve(question)
		if !errors.Is(err, ErrNoMatchingPrimitive) {
			t.Errorf("question %q: expected ErrNoMatchingPrimitive, got %v", question, err)
		}
	}
}

func TestResolver_Deterministic(t *testing.T) {
	r := testResolver(t)

	const question = "What was the survival rate by class?"
	first, err := r.Resolve(question)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 25; i++ {
		res, err := r.Resolve(question)
		if err != nil {
			t.Fatalf("unexpected error on iteration %d: %v", i, err)
		}
		if res.Outcome.Call.Name != first.Outcome.Call.Name {
			t.Fatalf("iteration %d resolved to %s, want %s",
				i, res.Outcome.Call.Name, first.Outcome.Call.Name)
		}
		if res.Answer != first.Answer {
			t.Fatalf("iteration %d produced a different answer", i)
		}
	}
}
