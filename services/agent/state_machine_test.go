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
	"errors"
	"testing"
)

func TestStateMachine_ValidCycle(t *testing.T) {
	m := newStateMachine()
	if m.State() != StatePlanning {
		t.Fatalf("new machine should start in PLANNING, got %s", m.State())
	}

	for _, to := range []AgentState{
		StateToolCall, StateObserving, StatePlanning,
		StateToolCall, StateObserving, StatePlanning,
		StateDone,
	} {
		if err := m.To(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if !m.State().IsTerminal() {
		t.Error("DONE should be terminal")
	}
}

func TestStateMachine_InvalidTransitions(t *testing.T) {
	cases := []struct {
		name string
		path []AgentState
		to   AgentState
	}{
		{"planning to observing", nil, StateObserving},
		{"tool call to done", []AgentState{StateToolCall}, StateDone},
		{"done is terminal", []AgentState{StateDone}, StatePlanning},
		{"failed is terminal", []AgentState{StateFailed}, StatePlanning},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newStateMachine()
			for _, s := range tc.path {
				if err := m.To(s); err != nil {
					t.Fatalf("setup transition to %s: %v", s, err)
				}
			}
			err := m.To(tc.to)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestStateMachine_AnyActiveStateCanFail(t *testing.T) {
	for _, path := range [][]AgentState{
		nil,
		{StateToolCall},
		{StateToolCall, StateObserving},
	} {
		m := newStateMachine()
		for _, s := range path {
			if err := m.To(s); err != nil {
				t.Fatalf("setup transition to %s: %v", s, err)
			}
		}
		if err := m.To(StateFailed); err != nil {
			t.Errorf("from %s: %v", m.State(), err)
		}
	}
}
