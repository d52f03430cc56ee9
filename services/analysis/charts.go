// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// Chart kinds.
const (
	ChartKindHistogram = "histogram"
	ChartKindBar       = "bar"
	ChartKindScatter   = "scatter"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch

	defaultHistogramBins = 20
	maxHistogramBins     = 100
)

// encodePlot renders a plot to base64 PNG. Rendering happens entirely
// in memory; the caller decides whether anything is persisted.
func encodePlot(p *plot.Plot) (string, error) {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return "", fmt.Errorf("%w: render failed: %v", ErrComputation, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("%w: render failed: %v", ErrComputation, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func newHistogramChart() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:          PrimHistogramChart,
			Description:   "Histogram of a numeric column, e.g. the distribution of passenger ages.",
			ProducesChart: true,
			Parameters: map[string]ParamDef{
				"column": {
					Type:        ParamTypeString,
					Description: "Numeric column to plot.",
					Required:    true,
					Column:      KindNumericColumn,
				},
				"bins": {
					Type:        ParamTypeInt,
					Description: "Number of histogram bins (default 20).",
					Default:     defaultHistogramBins,
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			column := paramStr(params, "column")
			bins := paramInt(params, "bins")
			if bins <= 0 || bins > maxHistogramBins {
				return nil, fmt.Errorf("%w: bins must be between 1 and %d, got %d",
					ErrInvalidParameter, maxHistogramBins, bins)
			}

			values, _ := ds.NumericValid(column)
			if len(values) == 0 {
				return nil, fmt.Errorf("%w: column %s has no recorded values", ErrComputation, column)
			}

			p := plot.New()
			p.Title.Text = fmt.Sprintf("%s Distribution", column)
			p.X.Label.Text = column
			p.Y.Label.Text = "Count"

			h, err := plotter.NewHist(plotter.Values(values), bins)
			if err != nil {
				return nil, fmt.Errorf("%w: histogram failed: %v", ErrComputation, err)
			}
			p.Add(h)

			image, err := encodePlot(p)
			if err != nil {
				return nil, err
			}

			caption := fmt.Sprintf("Distribution of %s across %d passengers (%d bins).",
				column, len(values), bins)
			return &Result{
				Summary: caption,
				Values: map[string]any{
					"column": column,
					"bins":   bins,
					"count":  len(values),
				},
				Chart: &Chart{ImageBase64: image, Caption: caption, Kind: ChartKindHistogram},
			}, nil
		},
	}
}

func newBarChart() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:          PrimBarChart,
			Description:   "Bar chart of a categorical column showing either group sizes or survival rates per group.",
			ProducesChart: true,
			Parameters: map[string]ParamDef{
				"column": {
					Type:        ParamTypeString,
					Description: "Categorical column on the x-axis.",
					Required:    true,
					Column:      KindCategoricalColumn,
				},
				"metric": {
					Type:        ParamTypeString,
					Description: "What each bar measures: \"count\" or \"survival_rate\".",
					Enum:        []string{"count", "survival_rate"},
					Default:     "count",
				},
			},
		},
		fn: func(ds *dataset.Dataset, params map[string]any) (*Result, error) {
			column := paramStr(params, "column")
			metric := paramStr(params, "metric")

			groups, err := survivalByGroup(ds, column)
			if err != nil {
				return nil, err
			}

			labels := make([]string, 0, len(groups))
			for label := range groups {
				labels = append(labels, label)
			}
			sort.Strings(labels)

			heights := make(plotter.Values, len(labels))
			yLabel := "Count"
			for i, label := range labels {
				if metric == "survival_rate" {
					heights[i] = groups[label].rate()
					yLabel = "Survival Rate (%)"
				} else {
					heights[i] = float64(groups[label].total)
				}
			}

			p := plot.New()
			if metric == "survival_rate" {
				p.Title.Text = fmt.Sprintf("Survival Rate by %s", column)
			} else {
				p.Title.Text = fmt.Sprintf("Passengers by %s", column)
			}
			p.X.Label.Text = column
			p.Y.Label.Text = yLabel

			bars, err := plotter.NewBarChart(heights, vg.Points(30))
			if err != nil {
				return nil, fmt.Errorf("%w: bar chart failed: %v", ErrComputation, err)
			}
			p.Add(bars)
			p.NominalX(labels...)

			image, err := encodePlot(p)
			if err != nil {
				return nil, err
			}

			var caption string
			if metric == "survival_rate" {
				caption = fmt.Sprintf("Survival rate by %s across %d groups.", column, len(labels))
			} else {
				caption = fmt.Sprintf("Passenger count by %s across %d groups.", column, len(labels))
			}
			return &Result{
				Summary: caption,
				Values: map[string]any{
					"column": column,
					"metric": metric,
					"groups": len(labels),
				},
				Chart: &Chart{ImageBase64: image, Caption: caption, Kind: ChartKindBar},
			}, nil
		},
	}
}

func newScatterChart() Primitive {
	return &primitiveFunc{
		def: Definition{
			Name:          PrimScatterChart,
			Description:   "Scatter plot of two numeric columns over rows where both are recorded.",
			ProducesChart: true,
			Parameters: map[string]ParamDef{
				"column_x": {
					Type:        ParamTypeString,
					Description: "Numeric column on the x-axis.",
					Required:    true,
					Column:      KindNumericColumn,
				},
				"column_y": {
					Type:        ParamTypeString,
					Description: "Numeric column on the y-axis.",
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

			points := make(plotter.XYs, len(xs))
			for i := range xs {
				points[i].X = xs[i]
				points[i].Y = ys[i]
			}

			p := plot.New()
			p.Title.Text = fmt.Sprintf("%s vs %s", colY, colX)
			p.X.Label.Text = colX
			p.Y.Label.Text = colY

			s, err := plotter.NewScatter(points)
			if err != nil {
				return nil, fmt.Errorf("%w: scatter failed: %v", ErrComputation, err)
			}
			p.Add(s)

			image, err := encodePlot(p)
			if err != nil {
				return nil, err
			}

			caption := fmt.Sprintf("%s against %s for %d passengers.", colY, colX, len(points))
			return &Result{
				Summary: caption,
				Values: map[string]any{
					"column_x": colX,
					"column_y": colY,
					"points":   len(points),
				},
				Chart: &Chart{ImageBase64: image, Caption: caption, Kind: ChartKindScatter},
			}, nil
		},
	}
}
