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

import "fmt"

// stateMachine tracks the lifecycle of one agent run and enforces the
// transition graph:
//
//	PLANNING → TOOL_CALL   : Model proposed a primitive call
//	PLANNING → DONE        : Model produced a final answer
//	PLANNING → FAILED      : Model unreachable or repeatedly malformed
//	TOOL_CALL → OBSERVING  : Primitive executed or rejected with a reason
//	TOOL_CALL → FAILED     : Proposal outside the catalogue
//	OBSERVING → PLANNING   : Result folded back, budget remaining
//	OBSERVING → FAILED     : Step budget exhausted or repeated rejection
//
// A run is single-goroutine, so the machine carries no lock.
type stateMachine struct {
	current AgentState
}

var validTransitions = map[AgentState]map[AgentState]bool{
	StatePlanning: {
		StateToolCall: true,
		StateDone:     true,
		StateFailed:   true,
	},
	StateToolCall: {
		StateObserving: true,
		StateFailed:    true,
	},
	StateObserving: {
		StatePlanning: true,
		StateFailed:   true,
	},
	StateDone:   {},
	StateFailed: {},
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StatePlanning}
}

// State returns the current state.
func (m *stateMachine) State() AgentState { return m.current }

// CanTransition checks whether the graph allows moving to the target.
func (m *stateMachine) CanTransition(to AgentState) bool {
	return validTransitions[m.current][to]
}

// To moves the machine to the target state.
//
// Outputs:
//
//	error - ErrInvalidTransition when the graph forbids the move
func (m *stateMachine) To(to AgentState) error {
	if !m.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
	}
	m.current = to
	return nil
}
