// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the question
// answering API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/Lifeboat/pkg/logging"
	"github.com/AleutianAI/Lifeboat/services/agent"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/datatypes"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/engine"
)

const tracerName = "lifeboat/handlers"

// HandleAsk answers POST /v1/ask.
//
// # Description
//
// Binds and validates the request, runs the engine, and maps engine
// errors onto HTTP statuses: validation failures are 400, an
// unavailable agent is 503 with a retry suggestion, everything else
// is 500. The answer, chart, and primitive audit trail come back in
// one JSON body.
//
// # Inputs
//
//   - eng: The question answering engine.
//
// # Outputs
//
//   - gin.HandlerFunc: Handler for the ask route.
func HandleAsk(eng *engine.Engine) gin.HandlerFunc {
	log := logging.Default().With("handler", "ask")

	return func(c *gin.Context) {
		requestID := uuid.NewString()

		var req datatypes.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error:     bindErrorMessage(err),
				RequestID: requestID,
			})
			return
		}

		ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "ask")
		defer span.End()
		span.SetAttributes(attribute.String("request.id", requestID))

		result, err := eng.Ask(ctx, req.Question, req.APIKey)
		if err != nil {
			span.RecordError(err)
			status, body := askErrorResponse(err, requestID)
			log.Warn("question failed",
				"request_id", requestID, "status", status, "error", err)
			c.JSON(status, body)
			return
		}

		span.SetAttributes(
			attribute.String("ask.route", result.Route),
			attribute.Int("ask.primitives", len(result.Outcomes)),
		)
		log.Info("question answered",
			"request_id", requestID,
			"route", result.Route,
			"primitives", len(result.Outcomes),
			"degraded", result.Degraded,
			"has_chart", result.Chart != nil,
		)

		c.JSON(http.StatusOK, datatypes.AskResponse{
			Answer:         result.Answer,
			Chart:          datatypes.ChartFromResult(result.Chart),
			PrimitivesUsed: result.PrimitivesUsed(),
			Route:          result.Route,
			Degraded:       result.Degraded,
			RequestID:      requestID,
		})
	}
}

// bindErrorMessage turns a binding failure into a client-facing message.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required", "min":
			return "question is required"
		case "max":
			return "question must be at most 2000 characters"
		}
	}
	return "request body must be JSON with a question field"
}

// askErrorResponse maps an engine error onto an HTTP status and body.
func askErrorResponse(err error, requestID string) (int, datatypes.ErrorResponse) {
	switch {
	case errors.Is(err, agent.ErrAgentUnavailable):
		return http.StatusServiceUnavailable, datatypes.ErrorResponse{
			Error:      "the reasoning agent could not complete the question",
			Suggestion: "try again shortly, or rephrase as a simpler statistical question",
			RequestID:  requestID,
		}
	case errors.Is(err, engine.ErrNoAgent):
		return http.StatusServiceUnavailable, datatypes.ErrorResponse{
			Error:      "this question needs the reasoning agent, which is not configured",
			Suggestion: "ask a direct statistical question, or configure an LLM backend",
			RequestID:  requestID,
		}
	default:
		return http.StatusInternalServerError, datatypes.ErrorResponse{
			Error:     "internal error while answering the question",
			RequestID: requestID,
		}
	}
}
