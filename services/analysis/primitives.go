// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// Catalogue primitive names.
const (
	PrimDatasetOverview      = "dataset_overview"
	PrimCountByCategory      = "count_by_category"
	PrimPercentageByCategory = "percentage_by_category"
	PrimNumericSummary       = "numeric_summary"
	PrimGroupBySurvival      = "group_by_survival"
	PrimCorrelation          = "correlation"
	PrimEmbarkationSummary   = "embarkation_summary"
	PrimHistogramChart       = "histogram_chart"
	PrimBarChart             = "bar_chart"
	PrimScatterChart         = "scatter_chart"
)

// embarkPorts maps Embarked codes to port names.
var embarkPorts = map[string]string{
	"C": "Cherbourg",
	"Q": "Queenstown",
	"S": "Southampton",
}

// DefaultRegistry returns a registry populated with the full primitive
// catalogue: frequency and percentage by category, numeric summaries,
// grouped survival ratios, pairwise correlation, the dataset overview and
// embarkation summaries, and the three chart generators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(newDatasetOverview())
	r.Register(newCountByCategory())
	r.Register(newPercentageByCategory())
	r.Register(newNumericSummary())
	r.Register(newGroupBySurvival())
	r.Register(newCorrelation())
	r.Register(newEmbarkationSummary())
	r.Register(newHistogramChart())
	r.Register(newBarChart())
	r.Register(newScatterChart())
	return r
}

func paramStr(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}

func paramInt(params map[string]any, name string) int {
	switch v := params[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func newDatasetOverview() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimDatasetOverview,
			Description: "Basic statistics for the whole dataset: passenger total, survivor count and rate, sex split, average age and fare, and passenger classes.",
			Parameters:  map[string]ParamDef{},
		},
		fn: func(ds *dataset.Dataset, _ map[string]any) (*Result, error) {
			total := ds.RowCount()
			if total == 0 {
				return nil, fmt.Errorf("%w: dataset has no rows", ErrComputation)
			}

			survived, _ := ds.Boolean("Survived")
			survivors := 0
			for _, s := range survived {
				if s {
					survivors++
				}
			}

			sexes, _ := ds.Categorical("Sex")
			males := 0
			for _, s := range sexes {
				if strings.EqualFold(s, "male") {
					males++
				}
			}

			ages, _ := ds.NumericValid("Age")
			fares, _ := ds.NumericValid("Fare")
			if len(ages) == 0 || len(fares) == 0 {
				return nil, fmt.Errorf("%w: Age or Fare column empty", ErrComputation)
			}

			classes := ds.Distinct("Pclass")
			survivalRate := pct(survivors, total)
			avgAge := stat.Mean(ages, nil)
			avgFare := stat.Mean(fares, nil)

			return &Result{
				Summary: fmt.Sprintf(
					"The dataset covers %d passengers; %d survived (%.1f%%). %d were male (%.1f%%). Average age %.1f years, average fare £%.2f.",
					total, survivors, survivalRate, males, pct(males, total), avgAge, avgFare),
				Values: map[string]any{
					"total_passengers":  total,
					"survivors":         survivors,
					"survival_rate":     survivalRate,
					"male_passengers":   males,
					"female_passengers": total - males,
					"male_percentage":   pct(males, total),
					"average_age":       avgAge,
					"average_fare":      avgFare,
					"classes":           classes,
				},
			}, nil
		},
	}
}

func newCountByCategory() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimCountByCategory,
			Description: "Frequency and percentage of each value in a categorical column.",
			Parameters: map[string]ParamDef{
				"column": {
					Type:        ParamTypeString,
					Description: "Categorical column to count, e.g. Sex, Pclass, Embarked.",
					Required:    true,
					Column:      KindCategoricalColumn,
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			column := paramStr(params, "column")
			values, _ := ds.Categorical(column)
			total := ds.RowCount()
			if total == 0 {
				return nil, fmt.Errorf("%w: dataset has no rows", ErrComputation)
			}

			counts := make(map[string]int)
			recorded := 0
			for _, v := range values {
				if v != "" {
					counts[v]++
					recorded++
				}
			}
			if recorded == 0 {
				return nil, fmt.Errorf("%w: column %s has no recorded values", ErrComputation, column)
			}

			labels := make([]string, 0, len(counts))
			for label := range counts {
				labels = append(labels, label)
			}
			sort.Strings(labels)

			byValue := make(map[string]any, len(labels))
			parts := make([]string, 0, len(labels))
			for _, label := range labels {
				byValue[label] = map[string]any{
					"count":      counts[label],
					"percentage": pct(counts[label], total),
				}
				parts = append(parts, fmt.Sprintf("%s: %d (%.1f%%)", label, counts[label], pct(counts[label], total)))
			}

			return &Result{
				Summary: fmt.Sprintf("%s breakdown: %s.", column, strings.Join(parts, ", ")),
				Values: map[string]any{
					"column":   column,
					"counts":   byValue,
					"recorded": recorded,
				},
			}, nil
		},
	}
}

func newPercentageByCategory() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimPercentageByCategory,
			Description: "Percentage of passengers whose categorical column matches a value, e.g. the share of male passengers.",
			Parameters: map[string]ParamDef{
				"column": {
					Type:        ParamTypeString,
					Description: "Categorical column to match against.",
					Required:    true,
					Column:      KindCategoricalColumn,
				},
				"value": {
					Type:        ParamTypeString,
					Description: "Value to match, e.g. \"male\" for Sex or \"1\" for Pclass.",
					Required:    true,
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			column := paramStr(params, "column")
			value := paramStr(params, "value")
			total := ds.RowCount()
			if total == 0 {
				return nil, fmt.Errorf("%w: dataset has no rows", ErrComputation)
			}

			values, _ := ds.Categorical(column)

			// The value domain is the column's distinct values; match
			// case-insensitively but report the canonical label.
			canonical := ""
			for _, distinct := range ds.Distinct(column) {
				if strings.EqualFold(distinct, value) {
					canonical = distinct
					break
				}
			}
			if canonical == "" {
				return nil, fmt.Errorf("%w: %q is not a value of column %s", ErrInvalidParameter, value, column)
			}

			matched := 0
			for _, v := range values {
				if v == canonical {
					matched++
				}
			}

			share := pct(matched, total)
			return &Result{
				Summary: fmt.Sprintf("%d of %d passengers have %s = %s, which is %.1f%% of all passengers.",
					matched, total, column, canonical, share),
				Values: map[string]any{
					"column":     column,
					"value":      canonical,
					"count":      matched,
					"total":      total,
					"percentage": share,
				},
			}, nil
		},
	}
}

func newNumericSummary() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimNumericSummary,
			Description: "Summary statistics for a numeric column: mean, median, quartiles, min, max, and standard deviation. Missing values are excluded.",
			Parameters: map[string]ParamDef{
				"column": {
					Type:        ParamTypeString,
					Description: "Numeric column to summarize, e.g. Age or Fare.",
					Required:    true,
					Column:      KindNumericColumn,
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			column := paramStr(params, "column")
			values, _ := ds.NumericValid(column)
			if len(values) == 0 {
				return nil, fmt.Errorf("%w: column %s has no recorded values", ErrComputation, column)
			}

			sorted := make([]float64, len(values))
			copy(sorted, values)
			sort.Float64s(sorted)

			mean := stat.Mean(sorted, nil)
			median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
			q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
			q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
			std := stat.StdDev(sorted, nil)

			result := map[string]any{
				"column":  column,
				"count":   len(sorted),
				"missing": ds.RowCount() - len(sorted),
				"mean":    mean,
				"median":  median,
				"q1":      q1,
				"q3":      q3,
				"min":     sorted[0],
				"max":     sorted[len(sorted)-1],
				"std":     std,
			}

			if column == "Age" {
				result["age_ranges"] = ageBands(sorted)
			}

			return &Result{
				Summary: fmt.Sprintf("%s: mean %.1f, median %.1f, range %.1f to %.1f (n=%d, %d missing).",
					column, mean, median, sorted[0], sorted[len(sorted)-1], len(sorted), ds.RowCount()-len(sorted)),
				Values: result,
			}, nil
		},
	}
}

// ageBands buckets recorded ages into the groups the original analysis
// reported: children, teens, adults, seniors.
func ageBands(ages []float64) map[string]int {
	bands := map[string]int{
		"children_0_12":   0,
		"teens_13_19":     0,
		"adults_20_59":    0,
		"seniors_60_plus": 0,
	}
	for _, a := range ages {
		switch {
		case a <= 12:
			bands["children_0_12"]++
		case a <= 19:
			bands["teens_13_19"]++
		case a <= 59:
			bands["adults_20_59"]++
		default:
			bands["seniors_60_plus"]++
		}
	}
	return bands
}

func newGroupBySurvival() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimGroupBySurvival,
			Description: "Survival rate, survivor count, and group size for each value of a categorical column, e.g. survival by Sex or by Pclass.",
			Parameters: map[string]ParamDef{
				"column": {
					Type:        ParamTypeString,
					Description: "Categorical column to group by.",
					Required:    true,
					Column:      KindCategoricalColumn,
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			column := paramStr(params, "column")
			groups, err := survivalByGroup(ds, column)
			if err != nil {
				return nil, err
			}

			labels := make([]string, 0, len(groups))
			for label := range groups {
				labels = append(labels, label)
			}
			sort.Strings(labels)

			byGroup := make(map[string]any, len(groups))
			parts := make([]string, 0, len(groups))
			for _, label := range labels {
				g := groups[label]
				byGroup[label] = map[string]any{
					"survival_rate": g.rate(),
					"survivors":     g.survivors,
					"total":         g.total,
				}
				parts = append(parts, fmt.Sprintf("%s: %.1f%% (%d of %d)", label, g.rate(), g.survivors, g.total))
			}

			return &Result{
				Summary: fmt.Sprintf("Survival rate by %s: %s.", column, strings.Join(parts, ", ")),
				Values: map[string]any{
					"column": column,
					"groups": byGroup,
				},
			}, nil
		},
	}
}

type survivalGroup struct {
	survivors int
	total     int
}

func (g survivalGroup) rate() float64 {
	if g.total == 0 {
		return 0
	}
	return pct(g.survivors, g.total)
}

// survivalByGroup tallies survivors per distinct value of a categorical
// column. Rows with a missing group value are skipped.
func survivalByGroup(ds *dataset.Dataset, column string) (map[string]survivalGroup, error) {
	values, ok := ds.Categorical(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a categorical column", ErrInvalidParameter, column)
	}
	survived, _ := ds.Boolean("Survived")

	groups := make(map[string]survivalGroup)
	for i, v := range values {
		if v == "" {
			continue
		}
		g := groups[v]
		g.total++
		if survived[i] {
			g.survivors++
		}
		groups[v] = g
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: column %s has no recorded groups", ErrComputation, column)
	}
	return groups, nil
}

func newCorrelation() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimCorrelation,
			Description: "Pearson correlation between two numeric columns over rows where both are recorded.",
			Parameters: map[string]ParamDef{
				"column_x": {
					Type:        ParamTypeString,
					Description: "First numeric column.",
					Required:    true,
					Column:      KindNumericColumn,
				},
				"column_y": {
					Type:        ParamTypeString,
					Description: "Second numeric column.",
					Required:    true,
					Column:      KindNumericColumn,
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			colX := paramStr(params, "column_x")
			colY := paramStr(params, "column_y")

			xs, ys, err := pairwiseComplete(ds, colX, colY)
			if err != nil {
				return nil, err
			}

			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) {
				return nil, fmt.Errorf("%w: correlation between %s and %s is undefined (zero variance)",
					ErrComputation, colX, colY)
			}

			return &Result{
				Summary: fmt.Sprintf("Pearson correlation between %s and %s is %.3f over %d complete rows (%s).",
					colX, colY, r, len(xs), describeCorrelation(r)),
				Values: map[string]any{
					"column_x":    colX,
					"column_y":    colY,
					"correlation": r,
					"pairs":       len(xs),
				},
			}, nil
		},
	}
}

// pairwiseComplete returns aligned values of two numeric columns for rows
// where both are recorded.
func pairwiseComplete(ds *dataset.Dataset, colX, colY string) ([]float64, []float64, error) {
	xsAll, _ := ds.Numeric(colX)
	ysAll, _ := ds.Numeric(colY)

	xs := make([]float64, 0, len(xsAll))
	ys := make([]float64, 0, len(ysAll))
	for i := range xsAll {
		if math.IsNaN(xsAll[i]) || math.IsNaN(ysAll[i]) {
			continue
		}
		xs = append(xs, xsAll[i])
		ys = append(ys, ysAll[i])
	}
	if len(xs) < 2 {
		return nil, nil, fmt.Errorf("%w: fewer than two complete rows for %s and %s",
			ErrComputation, colX, colY)
	}
	return xs, ys, nil
}

func describeCorrelation(r float64) string {
	abs := math.Abs(r)
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	switch {
	case abs < 0.1:
		return "negligible"
	case abs < 0.3:
		return "weak " + direction
	case abs < 0.6:
		return "moderate " + direction
	default:
		return "strong " + direction
	}
}

func newEmbarkationSummary() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:        PrimEmbarkationSummary,
			Description: "Passenger counts and percentages per embarkation port, with port codes expanded to names.",
			Parameters:  map[string]ParamDef{},
		},
		fn: func(ds *dataset.Dataset, _ map[string]any) (*Result, error) {
			values, _ := ds.Categorical("Embarked")
			total := ds.RowCount()
			if total == 0 {
				return nil, fmt.Errorf("%w: dataset has no rows", ErrComputation)
			}

			counts := make(map[string]int)
			for _, v := range values {
				if v != "" {
					counts[v]++
				}
			}
			if len(counts) == 0 {
				return nil, fmt.Errorf("%w: Embarked column has no recorded values", ErrComputation)
			}

			codes := make([]string, 0, len(counts))
			for code := range counts {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			ports := make(map[string]any, len(counts))
			parts := make([]string, 0, len(counts))
			for _, code := range codes {
				name := embarkPorts[code]
				if name == "" {
					name = code
				}
				ports[name] = map[string]any{
					"count":      counts[code],
					"percentage": pct(counts[code], total),
				}
				parts = append(parts, fmt.Sprintf("%s: %d (%.1f%%)", name, counts[code], pct(counts[code], total)))
			}

			return &Result{
				Summary: fmt.Sprintf("Passengers embarked from %s.", strings.Join(parts, ", ")),
				Values: map[string]any{
					"column": "Embarked",
					"ports":  ports,
				},
			}, nil
		},
	}
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
