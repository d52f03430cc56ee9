// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockStep is one scripted turn for MockClient.
type MockStep struct {
	Decision *Decision
	Err      error

	// Delay in the readiness sense is not modelled; tests that need
	// timeouts use a blocking Err step with a cancelled context.
	Block bool
}

// MockClient is a scripted Client for tests. Each call to Complete
// consumes the next step; calls past the end of the script fail.
//
// Thread Safety: safe for concurrent use.
type MockClient struct {
	mu    sync.Mutex
	steps []MockStep
	calls int

	// Requests records every request received, for assertions.
	Requests []*Request
}

// NewMockClient creates a client that replays the given steps in order.
func NewMockClient(steps ...MockStep) *MockClient {
	return &MockClient{steps: steps}
}

func (m *MockClient) Name() string  { return "mock" }
func (m *MockClient) Model() string { return "mock-model" }

// Calls reports how many times Complete has been invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) Complete(ctx context.Context, req *Request) (*Decision, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.Requests = append(m.Requests, req)
	if idx >= len(m.steps) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: mock script exhausted after %d calls", ErrBackendUnavailable, idx)
	}
	step := m.steps[idx]
	m.mu.Unlock()

	if step.Block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, ctx.Err())
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Decision, nil
}

// ToolCallStep is a convenience constructor for a scripted tool call.
func ToolCallStep(name string, params map[string]any) MockStep {
	return MockStep{Decision: &Decision{ToolCall: &ToolCall{
		ID:     fmt.Sprintf("call_%s", name),
		Name:   name,
		Params: params,
	}}}
}

// FinalStep is a convenience constructor for a scripted final answer.
func FinalStep(text string) MockStep {
	return MockStep{Decision: &Decision{Final: text}}
}
