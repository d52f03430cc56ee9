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
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/Lifeboat/services/agent"
	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/llm"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/observability"
)

// stubProvider hands back a fixed client regardless of API key.
type stubProvider struct {
	client llm.Client
	err    error
}

func (s *stubProvider) For(_ context.Context, _ string) (llm.Client, error) {
	return s.client, s.err
}

func testDataset(t *testing.T) *dataset.Dataset {
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
		{"8", "1", "2", "female", "14", "1", "0", "30.07", "C"},
	}
	ds, err := dataset.FromRecords(header, records)
	require.NoError(t, err)
	return ds
}

func newTestEngine(t *testing.T, provider ClientProvider) *Engine {
	t.Helper()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewEngine(testDataset(t), analysis.DefaultRegistry(), provider, agent.Config{}, metrics, nil)
}

func TestEngine_DirectQuestion(t *testing.T) {
	// No provider at all: direct questions must still work.
	e := newTestEngine(t, nil)

	result, err := e.Ask(context.Background(), "What percentage of passengers were male?", "")
	require.NoError(t, err)

	assert.Equal(t, observability.RouteDirect, result.Route)
	assert.NotEmpty(t, result.Answer)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, analysis.PrimPercentageByCategory, result.Outcomes[0].Call.Name)
	assert.Nil(t, result.Chart)
	assert.False(t, result.Degraded)
}

func TestEngine_DirectChartQuestion(t *testing.T) {
	e := newTestEngine(t, nil)

	result, err := e.Ask(context.Background(), "Show me a histogram of passenger ages", "")
	require.NoError(t, err)

	assert.Equal(t, observability.RouteDirect, result.Route)
	require.NotNil(t, result.Chart)
	assert.Equal(t, "histogram", result.Chart.Kind)
	assert.Contains(t, result.Chart.Caption, "Age")
	assert.NotEmpty(t, result.Chart.ImageBase64)
}

func TestEngine_ChartEnrichment(t *testing.T) {
	e := newTestEngine(t, nil)

	// Resolves to the survival-rate primitive, which has no chart; the
	// assembler must render a bar chart because the question asked to
	// see it.
	result, err := e.Ask(context.Background(), "Show survival rates by gender", "")
	require.NoError(t, err)

	require.NotNil(t, result.Chart)
	assert.Equal(t, "bar", result.Chart.Kind)
	assert.Contains(t, result.Chart.Caption, "Sex")
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, analysis.PrimGroupBySurvival, result.Outcomes[0].Call.Name)
	assert.Equal(t, analysis.PrimBarChart, result.Outcomes[1].Call.Name)
}

func TestEngine_AgentQuestion(t *testing.T) {
	mock := llm.NewMockClient(
		llm.ToolCallStep(analysis.PrimGroupBySurvival, map[string]any{"column": "Sex"}),
		llm.FinalStep("Women survived at a much higher rate than men."),
	)
	e := newTestEngine(t, &stubProvider{client: mock})

	result, err := e.Ask(context.Background(), "Why did some passengers survive while others did not?", "")
	require.NoError(t, err)

	assert.Equal(t, observability.RouteAgent, result.Route)
	assert.Equal(t, "Women survived at a much higher rate than men.", result.Answer)
	assert.Equal(t, []string{analysis.PrimGroupBySurvival}, result.PrimitivesUsed())
}

func TestEngine_DirectRerouteToAgent(t *testing.T) {
	mock := llm.NewMockClient(
		llm.FinalStep("The youngest survivor in the sample was a teenager."),
	)
	e := newTestEngine(t, &stubProvider{client: mock})

	// "how many" phrasing classifies as direct but references nothing
	// resolvable, so the agent takes over.
	result, err := e.Ask(context.Background(), "How many lifeboats were there?", "")
	require.NoError(t, err)
	assert.Equal(t, observability.RouteAgent, result.Route)
}

func TestEngine_AgentUnavailable(t *testing.T) {
	mock := llm.NewMockClient(llm.MockStep{Err: llm.ErrBackendUnavailable})
	e := newTestEngine(t, &stubProvider{client: mock})

	_, err := e.Ask(context.Background(), "Why did the ship sink?", "")
	assert.ErrorIs(t, err, agent.ErrAgentUnavailable)
}

func TestEngine_NoAgentConfigured(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.Ask(context.Background(), "Why did the ship sink?", "")
	assert.ErrorIs(t, err, ErrNoAgent)
}

func TestEngine_DegradedAgentAnswer(t *testing.T) {
	mock := llm.NewMockClient(
		llm.ToolCallStep(analysis.PrimDatasetOverview, nil),
		llm.MockStep{Err: llm.ErrBackendUnavailable},
	)
	e := newTestEngine(t, &stubProvider{client: mock})

	result, err := e.Ask(context.Background(), "Why did some passengers survive?", "")
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Answer)
	require.Len(t, result.Outcomes, 1)
}

func TestInferChartCall(t *testing.T) {
	e := newTestEngine(t, nil)

	cases := []struct {
		name      string
		question  string
		primitive string
		absent    bool
	}{
		{"numeric column", "show me the ages", analysis.PrimHistogramChart, false},
		{"categorical column", "show me the classes", analysis.PrimBarChart, false},
		{"no column referenced", "show me something nice", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call, ok := e.inferChartCall(tc.question)
			if tc.absent {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.primitive, call.Name)
		})
	}
}
