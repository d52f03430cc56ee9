// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/Lifeboat/services/agent"
	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/llm"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/datatypes"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/engine"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/routes"
)

type stubProvider struct {
	client llm.Client
}

func (s *stubProvider) For(_ context.Context, _ string) (llm.Client, error) {
	return s.client, nil
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	header := []string{"PassengerId", "Survived", "Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked"}
	records := [][]string{
		{"1", "0", "3", "male", "22", "1", "0", "7.25", "S"},
		{"2", "1", "1", "female", "38", "1", "0", "71.28", "C"},
		{"3", "1", "3", "female", "26", "0", "0", "7.92", "S"},
		{"4", "0", "1", "male", "54", "0", "0", "51.86", "S"},
	}
	ds, err := dataset.FromRecords(header, records)
	require.NoError(t, err)
	return ds
}

func testRouter(t *testing.T, client llm.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds := testDataset(t)
	var provider engine.ClientProvider
	if client != nil {
		provider = &stubProvider{client: client}
	}
	eng := engine.NewEngine(ds, analysis.DefaultRegistry(), provider, agent.Config{}, nil, nil)

	router := gin.New()
	routes.SetupRoutes(router, eng, ds, "none")
	return router
}

func ask(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAsk_DirectQuestion(t *testing.T) {
	router := testRouter(t, nil)

	w := ask(t, router, `{"question": "What percentage of passengers were male?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Answer)
	assert.Equal(t, "direct", resp.Route)
	assert.Equal(t, []string{analysis.PrimPercentageByCategory}, resp.PrimitivesUsed)
	assert.NotEmpty(t, resp.RequestID)
	assert.Nil(t, resp.Chart)
}

func TestHandleAsk_ChartQuestion(t *testing.T) {
	router := testRouter(t, nil)

	w := ask(t, router, `{"question": "Show me a histogram of passenger ages"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Chart)
	assert.Equal(t, "histogram", resp.Chart.Kind)
	assert.Contains(t, resp.Chart.Caption, "Age")
	assert.NotEmpty(t, resp.Chart.ImageBase64)
}

func TestHandleAsk_AgentQuestion(t *testing.T) {
	mock := llm.NewMockClient(
		llm.ToolCallStep(analysis.PrimGroupBySurvival, map[string]any{"column": "Sex"}),
		llm.FinalStep("Survival skewed heavily toward women."),
	)
	router := testRouter(t, mock)

	w := ask(t, router, `{"question": "Why did some passengers survive while others did not?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "agent", resp.Route)
	assert.Equal(t, "Survival skewed heavily toward women.", resp.Answer)
	assert.Equal(t, []string{analysis.PrimGroupBySurvival}, resp.PrimitivesUsed)
}

func TestHandleAsk_ValidationErrors(t *testing.T) {
	router := testRouter(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing question", `{}`},
		{"empty question", `{"question": ""}`},
		{"malformed json", `{"question": `},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ask(t, router, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp datatypes.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleAsk_NoAgentConfigured(t *testing.T) {
	router := testRouter(t, nil)

	w := ask(t, router, `{"question": "Why did the ship sink?"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Suggestion)
}

func TestHandleAsk_AgentUnavailable(t *testing.T) {
	mock := llm.NewMockClient(llm.MockStep{Err: llm.ErrBackendUnavailable})
	router := testRouter(t, mock)

	w := ask(t, router, `{"question": "Why did the ship sink?"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Suggestion, "try again")
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Rows)
	assert.Equal(t, "none", resp.LLMBackend)
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
