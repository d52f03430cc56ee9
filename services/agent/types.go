// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent runs the bounded tool-calling loop that answers
// open-ended questions about the passenger dataset.
//
// The agent is a strict interpreter: the model proposes primitive
// invocations, the agent validates each proposal against the catalogue
// and the dataset before anything runs, and every executed call is
// recorded in an auditable trace. The loop is bounded by a fixed step
// budget so a confused model can never spin.
package agent

import (
	"github.com/AleutianAI/Lifeboat/services/analysis"
)

// AgentState represents the loop's position in its lifecycle.
type AgentState string

const (
	// StatePlanning means the agent is waiting on a model decision.
	StatePlanning AgentState = "PLANNING"

	// StateToolCall means a proposed primitive call is being validated
	// and executed.
	StateToolCall AgentState = "TOOL_CALL"

	// StateObserving means a tool result is being folded back into the
	// conversation.
	StateObserving AgentState = "OBSERVING"

	// StateDone is the terminal success state.
	StateDone AgentState = "DONE"

	// StateFailed is the terminal failure state.
	StateFailed AgentState = "FAILED"
)

// String returns the state name.
func (s AgentState) String() string { return string(s) }

// IsTerminal reports whether the state ends the loop.
func (s AgentState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// AllStates returns every defined state.
func AllStates() []AgentState {
	return []AgentState{
		StatePlanning,
		StateToolCall,
		StateObserving,
		StateDone,
		StateFailed,
	}
}

// RunResult is the outcome of one agent run.
type RunResult struct {
	// Answer is the synthesized answer text.
	Answer string

	// Trace records every successfully executed primitive, in order.
	Trace []analysis.Outcome

	// Steps is how many model decisions were consumed.
	Steps int

	// State is the terminal state, StateDone or StateFailed.
	State AgentState

	// Degraded is true when the run failed mid-flight but produced at
	// least one result, and Answer is a summary of partial findings.
	Degraded bool
}
