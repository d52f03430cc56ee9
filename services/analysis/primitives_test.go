// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/Lifeboat/services/dataset"
)

func TestDatasetOverview(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	res, err := r.Invoke(ds, Call{Name: PrimDatasetOverview})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values["total_passengers"] != 10 {
		t.Errorf("expected 10 passengers, got %v", res.Values["total_passengers"])
	}
	if res.Values["survivors"] != 5 {
		t.Errorf("expected 5 survivors, got %v", res.Values["survivors"])
	}
	if rate := res.Values["survival_rate"].(float64); math.Abs(rate-50.0) > 1e-9 {
		t.Errorf("expected 50%% survival rate, got %v", rate)
	}
	if res.Summary == "" {
		t.Error("expected a summary sentence")
	}
}

func TestPercentageByCategory(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	t.Run("share of male passengers", func(t *testing.T) {
		res, err := r.Invoke(ds, Call{
			Name:   PrimPercentageByCategory,
			Params: map[string]any{"column": "Sex", "value": "male"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := res.Values["percentage"].(float64); math.Abs(got-50.0) > 1e-9 {
			t.Errorf("expected 50%%, got %v", got)
		}
		if !strings.Contains(res.Summary, "50.0%") {
			t.Errorf("summary should contain the percentage, got %q", res.Summary)
		}
	})

	t.Run("value outside column domain", func(t *testing.T) {
		_, err := r.Invoke(ds, Call{
			Name:   PrimPercentageByCategory,
			Params: map[string]any{"column": "Sex", "value": "unknown"},
		})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})
}

func TestNumericSummary(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	res, err := r.Invoke(ds, Call{Name: PrimNumericSummary, Params: map[string]any{"column": "Age"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values["count"] != 9 {
		t.Errorf("expected 9 recorded ages, got %v", res.Values["count"])
	}
	if res.Values["missing"] != 1 {
		t.Errorf("expected 1 missing age, got %v", res.Values["missing"])
	}
	mean := res.Values["mean"].(float64)
	if math.Abs(mean-253.0/9.0) > 1e-9 {
		t.Errorf("expected mean %.4f, got %v", 253.0/9.0, mean)
	}
	if res.Values["min"].(float64) != 2 || res.Values["max"].(float64) != 54 {
		t.Errorf("expected range 2..54, got %v..%v", res.Values["min"], res.Values["max"])
	}

	bands, ok := res.Values["age_ranges"].(map[string]int)
	if !ok {
		t.Fatal("expected age_ranges for the Age column")
	}
	if bands["children_0_12"] != 1 {
		t.Errorf("expected 1 child, got %d", bands["children_0_12"])
	}
}

func TestGroupBySurvival(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	res, err := r.Invoke(ds, Call{Name: PrimGroupBySurvival, Params: map[string]any{"column": "Sex"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	groups := res.Values["groups"].(map[string]any)
	female := groups["female"].(map[string]any)
	male := groups["male"].(map[string]any)

	if rate := female["survival_rate"].(float64); math.Abs(rate-100.0) > 1e-9 {
		t.Errorf("expected 100%% female survival in fixture, got %v", rate)
	}
	if rate := male["survival_rate"].(float64); math.Abs(rate) > 1e-9 {
		t.Errorf("expected 0%% male survival in fixture, got %v", rate)
	}
	if male["total"] != 5 || female["total"] != 5 {
		t.Errorf("expected 5 passengers per group, got male=%v female=%v", male["total"], female["total"])
	}
}

func TestCorrelation(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	t.Run("bounded and pair-counted", func(t *testing.T) {
		res, err := r.Invoke(ds, Call{
			Name:   PrimCorrelation,
			Params: map[string]any{"column_x": "Age", "column_y": "Fare"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		corr := res.Values["correlation"].(float64)
		if corr < -1 || corr > 1 {
			t.Errorf("correlation out of range: %v", corr)
		}
		// One row has a missing age, so only 9 complete pairs.
		if res.Values["pairs"] != 9 {
			t.Errorf("expected 9 complete pairs, got %v", res.Values["pairs"])
		}
	})

	t.Run("zero variance is a computation error", func(t *testing.T) {
		header := []string{"PassengerId", "Survived", "Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked"}
		records := [][]string{
			{"1", "0", "3", "male", "20", "0", "0", "10", "S"},
			{"2", "1", "1", "female", "30", "0", "0", "10", "C"},
			{"3", "1", "2", "female", "40", "0", "0", "10", "S"},
		}
		flat, err := dataset.FromRecords(header, records)
		if err != nil {
			t.Fatalf("failed to build dataset: %v", err)
		}

		_, err = r.Invoke(flat, Call{
			Name:   PrimCorrelation,
			Params: map[string]any{"column_x": "Age", "column_y": "Fare"},
		})
		if !errors.Is(err, ErrComputation) {
			t.Errorf("expected ErrComputation for constant Fare, got %v", err)
		}
	})
}

func TestEmbarkationSummary(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	res, err := r.Invoke(ds, Call{Name: PrimEmbarkationSummary})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ports := res.Values["ports"].(map[string]any)
	southampton := ports["Southampton"].(map[string]any)
	if southampton["count"] != 7 {
		t.Errorf("expected 7 Southampton embarkations, got %v", southampton["count"])
	}
	if _, ok := ports["Cherbourg"]; !ok {
		t.Error("expected port code C to be expanded to Cherbourg")
	}
}

// Invoking a primitive twice with the same dataset and parameters must
// yield identical results.
func TestPrimitives_Purity(t *testing.T) {
	r := DefaultRegistry()
	ds := testDataset(t)

	calls := []Call{
		{Name: PrimDatasetOverview},
		{Name: PrimCountByCategory, Params: map[string]any{"column": "Pclass"}},
		{Name: PrimNumericSummary, Params: map[string]any{"column": "Fare"}},
		{Name: PrimGroupBySurvival, Params: map[string]any{"column": "Pclass"}},
		{Name: PrimCorrelation, Params: map[string]any{"column_x": "Age", "column_y": "Fare"}},
	}

	for _, call := range calls {
		t.Run(call.Name, func(t *testing.T) {
			first, err := r.Invoke(ds, call)
			if err != nil {
				t.Fatalf("first invocation failed: %v", err)
			}
			second, err := r.Invoke(ds, call)
			if err != nil {
				t.Fatalf("second invocation failed: %v", err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Error("repeated invocation produced a different result")
			}
		})
	}
}
