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
	"strings"

	"github.com/AleutianAI/Lifeboat/services/dataset"
)

// validateParams checks a parameter map against a definition and the
// dataset, returning a normalized copy with defaults applied.
//
// Rules:
//   - parameter names not in the schema are rejected
//   - required parameters must be present
//   - string parameters must be strings; integer parameters accept
//     float64 (JSON numbers) with an integral value
//   - enum parameters must match one of the declared values
//   - column parameters must name an existing column of the declared kind
//
// All violations return an error wrapping ErrInvalidParameter.
func validateParams(ds *dataset.Dataset, def Definition, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(def.Parameters))

	for name := range params {
		if _, ok := def.Parameters[name]; !ok {
			return nil, fmt.Errorf("%w: %s does not accept parameter %q", ErrInvalidParameter, def.Name, name)
		}
	}

	for name, pd := range def.Parameters {
		raw, present := params[name]
		if !present {
			if pd.Required {
				return nil, fmt.Errorf("%w: %s requires parameter %q", ErrInvalidParameter, def.Name, name)
			}
			if pd.Default != nil {
				out[name] = pd.Default
			}
			continue
		}

		switch pd.Type {
		case ParamTypeString:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s parameter %q must be a string", ErrInvalidParameter, def.Name, name)
			}
			if pd.Column != KindNone {
				resolved, err := resolveColumn(ds, name, s, pd.Column)
				if err != nil {
					return nil, err
				}
				s = resolved
			}
			if len(pd.Enum) > 0 && !containsFold(pd.Enum, s) {
				return nil, fmt.Errorf("%w: %s parameter %q must be one of %v, got %q",
					ErrInvalidParameter, def.Name, name, pd.Enum, s)
			}
			out[name] = s

		case ParamTypeInt:
			n, err := toInt(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s parameter %q must be an integer", ErrInvalidParameter, def.Name, name)
			}
			out[name] = n

		default:
			return nil, fmt.Errorf("%w: %s parameter %q has unsupported type %q",
				ErrInvalidParameter, def.Name, name, pd.Type)
		}
	}

	return out, nil
}

// resolveColumn matches a column reference against the dataset schema.
// Matching is case-insensitive so "age" resolves to "Age", but the
// canonical column name is always returned.
func resolveColumn(ds *dataset.Dataset, param, value string, kind ColumnKind) (string, error) {
	canonical := ""
	if ds.HasColumn(value) {
		canonical = value
	} else {
		for _, name := range ds.Columns() {
			if strings.EqualFold(name, value) {
				canonical = name
				break
			}
		}
	}
	if canonical == "" {
		return "", fmt.Errorf("%w: %q is not a dataset column", ErrInvalidParameter, value)
	}

	colType, _ := ds.TypeOf(canonical)
	switch kind {
	case KindAnyColumn:
	case KindNumericColumn:
		if colType != dataset.ColumnNumeric {
			return "", fmt.Errorf("%w: parameter %q requires a numeric column, %s is %s",
				ErrInvalidParameter, param, canonical, colType)
		}
	case KindCategoricalColumn:
		if colType != dataset.ColumnCategorical {
			return "", fmt.Errorf("%w: parameter %q requires a categorical column, %s is %s",
				ErrInvalidParameter, param, canonical, colType)
		}
	}
	return canonical, nil
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not integral", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("value %v is not an integer", raw)
	}
}
