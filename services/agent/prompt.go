// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/llm"
)

// systemPrompt builds the instruction block sent with every model call.
// It embeds the dataset shape so the model grounds its tool parameters
// in columns that actually exist.
func systemPrompt(ds *dataset.Dataset, maxSteps int) string {
	var b strings.Builder

	b.WriteString("You are a data analyst answering questions about the Titanic passenger dataset.\n")
	b.WriteString("You cannot see raw rows. You answer by calling the provided analysis tools ")
	b.WriteString("and interpreting their results.\n\n")

	b.WriteString("Dataset:\n")
	fmt.Fprintf(&b, "- %d passenger rows\n", ds.RowCount())
	b.WriteString("- Columns:\n")
	for _, name := range ds.Columns() {
		t, _ := ds.TypeOf(name)
		fmt.Fprintf(&b, "  - %s (%s)\n", name, t)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Call one tool at a time and wait for its result.\n")
	fmt.Fprintf(&b, "- You have at most %d tool calls. Prefer fewer.\n", maxSteps)
	b.WriteString("- Use exact column names from the list above.\n")
	b.WriteString("- When you have enough evidence, reply with a final answer in plain prose.\n")
	b.WriteString("- Ground every claim in a tool result. Do not invent figures.\n")

	return b.String()
}

// toolSpecs converts the primitive catalogue into the schema format the
// model backends understand.
func toolSpecs(defs []analysis.Definition) []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(defs))
	for _, def := range defs {
		properties := make(map[string]any, len(def.Parameters))
		var required []string
		for name, param := range def.Parameters {
			prop := map[string]any{
				"type":        string(param.Type),
				"description": param.Description,
			}
			if len(param.Enum) > 0 {
				prop["enum"] = param.Enum
			}
			properties[name] = prop
			if param.Required {
				required = append(required, name)
			}
		}
		sort.Strings(required)

		schema := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			schema["required"] = required
		}

		specs = append(specs, llm.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  schema,
		})
	}
	return specs
}
