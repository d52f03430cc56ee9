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
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/Lifeboat/pkg/logging"
	"github.com/AleutianAI/Lifeboat/services/agent"
	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/classifier"
	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/llm"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/observability"
	"github.com/AleutianAI/Lifeboat/services/resolver"
)

// ErrNoAgent indicates a question needs the reasoning agent but the
// service runs without a model backend.
var ErrNoAgent = errors.New("reasoning agent not configured")

// ClientProvider supplies model clients per request. *llm.Provider is
// the production implementation; tests substitute a stub.
type ClientProvider interface {
	// For returns the client to use for a request. A non-empty apiKey
	// overrides the configured credentials.
	For(ctx context.Context, apiKey string) (llm.Client, error)
}

// AskResult is the engine-level outcome of one question.
type AskResult struct {
	// Answer is the textual answer.
	Answer string

	// Chart is present when the question produced a visualization.
	Chart *analysis.Chart

	// Outcomes records every primitive executed for the question.
	Outcomes []analysis.Outcome

	// Route is "direct" or "agent".
	Route string

	// Degraded is true for partial-findings answers.
	Degraded bool
}

// Engine coordinates classification, direct resolution, the reasoning
// agent, and response assembly.
//
// # Thread Safety
//
// Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	ds       *dataset.Dataset
	registry *analysis.Registry
	resolver *resolver.Resolver
	provider ClientProvider
	agentCfg agent.Config
	metrics  *observability.AskMetrics
	log      *logging.Logger
}

// NewEngine wires the engine from its parts.
//
// # Inputs
//
//   - ds: The loaded passenger dataset.
//   - registry: The primitive catalogue.
//   - provider: Model backend provider; its Default may be nil.
//   - agentCfg: Agent loop tuning.
//   - metrics: May be nil to disable metric recording.
func NewEngine(ds *dataset.Dataset, registry *analysis.Registry, provider ClientProvider,
	agentCfg agent.Config, metrics *observability.AskMetrics, log *logging.Logger) *Engine {

	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		ds:       ds,
		registry: registry,
		resolver: resolver.New(ds, registry),
		provider: provider,
		agentCfg: agentCfg,
		metrics:  metrics,
		log:      log.With("component", "engine"),
	}
}

// Ask answers one question.
//
// # Description
//
// The question is classified as direct or agent-bound. Direct questions
// resolve to a single primitive; when no pattern matches they fall
// through to the agent rather than failing. Agent questions run the
// bounded reasoning loop. The assembler then enforces the chart
// contract on whatever came back.
//
// # Inputs
//
//   - ctx: Cancels downstream model calls.
//   - question: The raw question text.
//   - apiKey: Optional per-request model API key override.
//
// # Outputs
//
//   - *AskResult: The assembled answer.
//   - error: agent.ErrAgentUnavailable when the agent produced nothing,
//     ErrNoAgent when reasoning is required but unconfigured.
func (e *Engine) Ask(ctx context.Context, question, apiKey string) (*AskResult, error) {
	started := time.Now()
	cls := classifier.Classify(question)

	result, err := e.answer(ctx, question, apiKey, cls)
	if err != nil {
		e.record(string(cls.Route), observability.StatusError, started, nil)
		return nil, err
	}

	e.assemble(result, question, cls.WantsChart)

	status := observability.StatusSuccess
	if result.Degraded {
		status = observability.StatusDegraded
	}
	e.record(result.Route, status, started, result.Outcomes)
	return result, nil
}

// answer routes the question and produces the raw result.
func (e *Engine) answer(ctx context.Context, question, apiKey string, cls classifier.Classification) (*AskResult, error) {
	if cls.Route == classifier.RouteDirect {
		res, err := e.resolver.Resolve(question)
		if err == nil {
			return &AskResult{
				Answer:   res.Answer,
				Outcomes: []analysis.Outcome{res.Outcome},
				Route:    observability.RouteDirect,
			}, nil
		}
		if !errors.Is(err, resolver.ErrNoMatchingPrimitive) {
			return nil, err
		}
		// Local resolution failed; the agent gets a chance before the
		// caller sees an error.
		e.log.Info("rerouting to agent", "reason", err)
		if e.metrics != nil {
			e.metrics.RecordReroute()
		}
	}
	return e.runAgent(ctx, question, apiKey)
}

// runAgent executes the reasoning loop for one question.
func (e *Engine) runAgent(ctx context.Context, question, apiKey string) (*AskResult, error) {
	if e.provider == nil {
		return nil, ErrNoAgent
	}
	client, err := e.provider.For(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAgent, err)
	}
	if client == nil {
		return nil, ErrNoAgent
	}

	a, err := agent.New(client, e.registry, e.ds, e.agentCfg, e.log)
	if err != nil {
		return nil, err
	}

	run, err := a.Run(ctx, question)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordAgentRun(run.Steps)
	}
	return &AskResult{
		Answer:   run.Answer,
		Outcomes: run.Trace,
		Route:    observability.RouteAgent,
		Degraded: run.Degraded,
	}, nil
}

func (e *Engine) record(route, status string, started time.Time, outcomes []analysis.Outcome) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordQuestion(route, status, time.Since(started).Seconds())
	if len(outcomes) > 0 {
		names := make([]string, len(outcomes))
		for i, o := range outcomes {
			names[i] = o.Call.Name
		}
		e.metrics.RecordPrimitives(names)
	}
}

// PrimitivesUsed extracts the executed primitive names in order.
func (r *AskResult) PrimitivesUsed() []string {
	names := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		names[i] = o.Call.Name
	}
	return names
}
