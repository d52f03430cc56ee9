// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types of the question answering API.
package datatypes

import (
	"github.com/AleutianAI/Lifeboat/services/analysis"
)

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	// Question is the natural language question. Required.
	Question string `json:"question" binding:"required,min=1,max=2000"`

	// APIKey optionally overrides the server's configured model API key
	// for this request only. It is never logged or echoed back.
	APIKey string `json:"apiKey,omitempty"`
}

// ChartPayload is an encoded chart in a response.
type ChartPayload struct {
	// ImageBase64 is the PNG image, base64 encoded.
	ImageBase64 string `json:"imageBase64"`

	// Caption describes the chart and names the plotted columns.
	Caption string `json:"caption"`

	// Kind is the chart family: histogram, bar, or scatter.
	Kind string `json:"kind"`
}

// AskResponse is the body of a successful POST /v1/ask.
type AskResponse struct {
	// Answer is the textual answer.
	Answer string `json:"answer"`

	// Chart is present when the question produced a visualization.
	Chart *ChartPayload `json:"chart,omitempty"`

	// PrimitivesUsed lists the analysis operations that produced the
	// answer, in execution order.
	PrimitivesUsed []string `json:"primitivesUsed"`

	// Route is how the question was answered: "direct" or "agent".
	Route string `json:"route"`

	// Degraded is true when the answer summarizes partial findings
	// after an agent failure.
	Degraded bool `json:"degraded,omitempty"`

	// RequestID identifies the request for log correlation.
	RequestID string `json:"requestId"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`

	// Suggestion tells the client what to do next, when there is
	// something useful to say.
	Suggestion string `json:"suggestion,omitempty"`

	RequestID string `json:"requestId,omitempty"`
}

// ChartFromResult converts an analysis chart to its wire form.
func ChartFromResult(chart *analysis.Chart) *ChartPayload {
	if chart == nil {
		return nil
	}
	return &ChartPayload{
		ImageBase64: chart.ImageBase64,
		Caption:     chart.Caption,
		Kind:        chart.Kind,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`

	// Rows is the number of passenger rows loaded.
	Rows int `json:"rows"`

	// LLMBackend is the configured model backend, "none" when the
	// service runs without an agent.
	LLMBackend string `json:"llmBackend"`
}
