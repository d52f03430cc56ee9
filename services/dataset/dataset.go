// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dataset provides read-only access to the Titanic passenger table.
//
// The dataset is loaded from CSV exactly once per process and is immutable
// afterward. Every other service receives computed aggregates or copies of
// column data, never a mutable reference into the table.
//
// Thread Safety:
//
//	Dataset is immutable after construction and safe for unlimited
//	concurrent readers.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ErrDataUnavailable indicates the backing file is missing, malformed, or
// schema-incompatible. This error is fatal at startup: the process cannot
// serve any request without the dataset.
var ErrDataUnavailable = errors.New("dataset unavailable")

// ColumnType classifies a dataset column.
type ColumnType string

const (
	// ColumnNumeric holds float64 values; missing entries are NaN.
	ColumnNumeric ColumnType = "numeric"

	// ColumnCategorical holds string labels; missing entries are "".
	ColumnCategorical ColumnType = "categorical"

	// ColumnBoolean holds true/false flags.
	ColumnBoolean ColumnType = "boolean"
)

// columnSpec declares the fixed Titanic schema.
//
// Required columns cause ErrDataUnavailable when absent from the CSV
// header; optional columns are loaded when present and skipped otherwise.
type columnSpec struct {
	Type     ColumnType
	Required bool
}

var titanicSchema = map[string]columnSpec{
	"PassengerId": {ColumnNumeric, true},
	"Survived":    {ColumnBoolean, true},
	"Pclass":      {ColumnCategorical, true},
	"Name":        {ColumnCategorical, false},
	"Sex":         {ColumnCategorical, true},
	"Age":         {ColumnNumeric, true},
	"SibSp":       {ColumnNumeric, true},
	"Parch":       {ColumnNumeric, true},
	"Ticket":      {ColumnCategorical, false},
	"Fare":        {ColumnNumeric, true},
	"Cabin":       {ColumnCategorical, false},
	"Embarked":    {ColumnCategorical, true},
}

// Dataset is the immutable in-memory passenger table.
type Dataset struct {
	rows        int
	order       []string
	types       map[string]ColumnType
	numeric     map[string][]float64
	categorical map[string][]string
	boolean     map[string][]bool
}

// FromRecords builds a Dataset from a CSV header and its data records.
//
// Description:
//
//	Columns are typed according to the fixed Titanic schema. Unknown
//	header columns are ignored. Missing numeric cells become NaN and
//	missing categorical cells become "". The boolean Survived column
//	accepts "0"/"1".
//
// Inputs:
//
//	header - CSV header row
//	records - data rows, each the same length as header
//
// Outputs:
//
//	*Dataset - the constructed table
//	error - ErrDataUnavailable if a required column is absent or a
//	        row cannot be parsed
func FromRecords(header []string, records [][]string) (*Dataset, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	for name, spec := range titanicSchema {
		if _, ok := index[name]; !ok && spec.Required {
			return nil, fmt.Errorf("%w: required column %q missing", ErrDataUnavailable, name)
		}
	}

	ds := &Dataset{
		rows:        len(records),
		types:       make(map[string]ColumnType),
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
		boolean:     make(map[string][]bool),
	}

	// Preserve header order for stable Columns() output.
	for _, name := range header {
		spec, ok := titanicSchema[name]
		if !ok {
			continue
		}
		ds.order = append(ds.order, name)
		ds.types[name] = spec.Type

		col := index[name]
		switch spec.Type {
		case ColumnNumeric:
			values := make([]float64, len(records))
			for i, rec := range records {
				if col >= len(rec) {
					return nil, fmt.Errorf("%w: row %d has %d fields, expected %d",
						ErrDataUnavailable, i+1, len(rec), len(header))
				}
				cell := rec[col]
				if cell == "" {
					values[i] = math.NaN()
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d column %s: %v",
						ErrDataUnavailable, i+1, name, err)
				}
				values[i] = v
			}
			ds.numeric[name] = values

		case ColumnBoolean:
			values := make([]bool, len(records))
			for i, rec := range records {
				if col >= len(rec) {
					return nil, fmt.Errorf("%w: row %d has %d fields, expected %d",
						ErrDataUnavailable, i+1, len(rec), len(header))
				}
				switch rec[col] {
				case "0":
					values[i] = false
				case "1":
					values[i] = true
				default:
					return nil, fmt.Errorf("%w: row %d column %s: invalid flag %q",
						ErrDataUnavailable, i+1, name, rec[col])
				}
			}
			ds.boolean[name] = values

		case ColumnCategorical:
			values := make([]string, len(records))
			for i, rec := range records {
				if col >= len(rec) {
					return nil, fmt.Errorf("%w: row %d has %d fields, expected %d",
						ErrDataUnavailable, i+1, len(rec), len(header))
				}
				values[i] = rec[col]
			}
			ds.categorical[name] = values
		}
	}

	return ds, nil
}

// RowCount returns the number of rows in the table.
func (d *Dataset) RowCount() int {
	return d.rows
}

// Schema returns the column name to type mapping.
//
// Outputs:
//
//	map[string]ColumnType - a copy; mutating it does not affect the dataset
func (d *Dataset) Schema() map[string]ColumnType {
	schema := make(map[string]ColumnType, len(d.types))
	for name, t := range d.types {
		schema[name] = t
	}
	return schema
}

// Columns returns column names in header order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.types[name]
	return ok
}

// TypeOf returns the type of the named column.
func (d *Dataset) TypeOf(name string) (ColumnType, bool) {
	t, ok := d.types[name]
	return t, ok
}

// Numeric returns a copy of a numeric column, NaN marking missing cells.
func (d *Dataset) Numeric(name string) ([]float64, bool) {
	values, ok := d.numeric[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, true
}

// NumericValid returns a copy of a numeric column with missing cells removed.
func (d *Dataset) NumericValid(name string) ([]float64, bool) {
	values, ok := d.numeric[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out, true
}

// Categorical returns a copy of a categorical column, "" marking missing cells.
func (d *Dataset) Categorical(name string) ([]string, bool) {
	values, ok := d.categorical[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, true
}

// Boolean returns a copy of a boolean column.
func (d *Dataset) Boolean(name string) ([]bool, bool) {
	values, ok := d.boolean[name]
	if !ok {
		return nil, false
	}
	out := make([]bool, len(values))
	copy(out, values)
	return out, true
}

// Distinct returns the sorted distinct non-missing values of a categorical
// column.
func (d *Dataset) Distinct(name string) []string {
	values, ok := d.categorical[name]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	for _, v := range values {
		if v != "" {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NumericColumns returns the names of numeric columns in header order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, name := range d.order {
		if d.types[name] == ColumnNumeric {
			out = append(out, name)
		}
	}
	return out
}

// CategoricalColumns returns the names of categorical columns in header order.
func (d *Dataset) CategoricalColumns() []string {
	var out []string
	for _, name := range d.order {
		if d.types[name] == ColumnCategorical {
			out = append(out, name)
		}
	}
	return out
}
