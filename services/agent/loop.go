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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/Lifeboat/pkg/logging"
	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/llm"
)

const (
	// DefaultMaxSteps bounds the number of model decisions per run.
	DefaultMaxSteps = 5

	// DefaultLLMTimeout bounds each individual model call.
	DefaultLLMTimeout = 30 * time.Second

	// maxConsecutiveRejections is how many invalid proposals in a row
	// the loop tolerates before giving up.
	maxConsecutiveRejections = 2
)

// Config tunes one Agent.
type Config struct {
	// MaxSteps caps model decisions per run. Zero means DefaultMaxSteps.
	MaxSteps int

	// LLMTimeout caps each model call. Zero means DefaultLLMTimeout.
	LLMTimeout time.Duration

	// Temperature is passed through to the model backend.
	Temperature float32
}

// Agent executes the bounded reasoning loop over the primitive
// catalogue.
//
// Thread Safety: Agent is immutable after construction; each Run uses
// only local state, so one Agent serves concurrent requests.
type Agent struct {
	client   llm.Client
	registry *analysis.Registry
	ds       *dataset.Dataset
	cfg      Config
	log      *logging.Logger

	prompt string
	tools  []llm.ToolSpec
}

// New creates an Agent. The system prompt and tool schemas are built
// once here since the dataset and catalogue never change.
func New(client llm.Client, registry *analysis.Registry, ds *dataset.Dataset, cfg Config, log *logging.Logger) (*Agent, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = DefaultLLMTimeout
	}
	if log == nil {
		log = logging.Default()
	}
	return &Agent{
		client:   client,
		registry: registry,
		ds:       ds,
		cfg:      cfg,
		log:      log.With("component", "agent", "backend", client.Name()),
		prompt:   systemPrompt(ds, cfg.MaxSteps),
		tools:    toolSpecs(registry.Definitions()),
	}, nil
}

// Run answers one question.
//
// Description:
//
//	Drives the PLANNING/TOOL_CALL/OBSERVING cycle until the model
//	produces a final answer, the step budget runs out, or the model
//	fails. A run that dies with at least one executed primitive
//	returns a degraded summary of partial findings instead of an
//	error; a run with nothing to show returns ErrAgentUnavailable.
//
// Inputs:
//
//	ctx - cancels the whole run; each model call additionally gets
//	      the configured per-call timeout
//	question - the user's question text
//
// Outputs:
//
//	*RunResult - answer, trace, and terminal state
//	error - ErrAgentUnavailable when no result could be produced
func (a *Agent) Run(ctx context.Context, question string) (*RunResult, error) {
	machine := newStateMachine()
	messages := []llm.Message{{Role: llm.RoleUser, Content: question}}

	var trace []analysis.Outcome
	var failReason string
	rejections := 0
	steps := 0

	for steps < a.cfg.MaxSteps {
		steps++

		decision, err := a.complete(ctx, messages)
		if err != nil {
			if errors.Is(err, llm.ErrMalformedOutput) {
				rejections++
				a.log.Warn("malformed model output",
					"step", steps, "error", err)
				if rejections >= maxConsecutiveRejections {
					failReason = "model output repeatedly malformed"
					_ = machine.To(StateFailed)
					break
				}
				messages = append(messages, llm.Message{
					Role:    llm.RoleUser,
					Content: "Your last response was not a valid tool call or answer. Call one tool or give a final answer.",
				})
				continue
			}
			failReason = fmt.Sprintf("model call failed: %v", err)
			_ = machine.To(StateFailed)
			break
		}

		if decision.Final != "" {
			if err := machine.To(StateDone); err != nil {
				return nil, err
			}
			a.log.Info("agent finished", "steps", steps, "tool_calls", len(trace))
			return &RunResult{
				Answer: decision.Final,
				Trace:  trace,
				Steps:  steps,
				State:  StateDone,
			}, nil
		}

		if decision.ToolCall == nil {
			rejections++
			if rejections >= maxConsecutiveRejections {
				failReason = "model produced empty decisions"
				_ = machine.To(StateFailed)
				break
			}
			continue
		}

		if err := machine.To(StateToolCall); err != nil {
			return nil, err
		}
		call := analysis.Call{
			Name:   decision.ToolCall.Name,
			Params: decision.ToolCall.Params,
		}

		if _, ok := a.registry.Get(call.Name); !ok {
			// A tool outside the catalogue means the model is not
			// following the schema at all. Not recoverable.
			failReason = fmt.Sprintf("model requested unknown tool %q", call.Name)
			_ = machine.To(StateFailed)
			break
		}

		result, invokeErr := a.registry.Invoke(a.ds, call)
		if err := machine.To(StateObserving); err != nil {
			return nil, err
		}

		if invokeErr != nil {
			rejections++
			a.log.Warn("primitive rejected",
				"primitive", call.Name, "step", steps, "error", invokeErr)
			if rejections >= maxConsecutiveRejections {
				failReason = fmt.Sprintf("repeated invalid tool calls, last: %v", invokeErr)
				_ = machine.To(StateFailed)
				break
			}
			messages = appendExchange(messages, decision.ToolCall,
				fmt.Sprintf("error: %v", invokeErr))
			if err := machine.To(StatePlanning); err != nil {
				return nil, err
			}
			continue
		}

		rejections = 0
		trace = append(trace, analysis.Outcome{Call: call, Result: result})
		a.log.Debug("primitive executed", "primitive", call.Name, "step", steps)

		messages = appendExchange(messages, decision.ToolCall, observation(result))
		if err := machine.To(StatePlanning); err != nil {
			return nil, err
		}
	}

	if machine.State() != StateFailed {
		failReason = "step budget exhausted without a final answer"
	}

	if len(trace) > 0 {
		a.log.Warn("agent degraded", "reason", failReason, "tool_calls", len(trace))
		return &RunResult{
			Answer:   degradedSummary(trace),
			Trace:    trace,
			Steps:    steps,
			State:    StateFailed,
			Degraded: true,
		}, nil
	}

	a.log.Error("agent unavailable", "reason", failReason)
	return nil, fmt.Errorf("%w: %s", ErrAgentUnavailable, failReason)
}

// complete runs one model call under the per-call timeout.
func (a *Agent) complete(ctx context.Context, messages []llm.Message) (*llm.Decision, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.LLMTimeout)
	defer cancel()

	return a.client.Complete(callCtx, &llm.Request{
		SystemPrompt: a.prompt,
		Messages:     messages,
		Tools:        a.tools,
		Temperature:  a.cfg.Temperature,
	})
}

// appendExchange records a tool call and its observation in the
// conversation.
func appendExchange(messages []llm.Message, call *llm.ToolCall, observation string) []llm.Message {
	return append(messages,
		llm.Message{Role: llm.RoleAssistant, ToolCall: call},
		llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    observation,
		},
	)
}

// observation serializes a primitive result for the model. Chart bytes
// are elided; the model only needs to know a chart was produced.
func observation(result *analysis.Result) string {
	view := struct {
		Summary string         `json:"summary"`
		Values  map[string]any `json:"values,omitempty"`
		Chart   string         `json:"chart,omitempty"`
	}{
		Summary: result.Summary,
		Values:  result.Values,
	}
	if result.Chart != nil {
		view.Chart = fmt.Sprintf("%s chart rendered: %s", result.Chart.Kind, result.Chart.Caption)
	}
	out, err := json.Marshal(view)
	if err != nil {
		return result.Summary
	}
	return string(out)
}

// degradedSummary builds a partial-findings answer from the trace.
func degradedSummary(trace []analysis.Outcome) string {
	var b strings.Builder
	b.WriteString("I could not fully complete the analysis, but here is what I found: ")
	for i, outcome := range trace {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(outcome.Result.Summary)
	}
	return b.String()
}
