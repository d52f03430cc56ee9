// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm defines the provider-agnostic interface the reasoning agent
// uses to talk to a language model, plus concrete OpenAI and Gemini
// backends. The agent never sees provider SDK types; every backend
// normalizes its output into a Decision.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrMalformedOutput indicates the model produced output that could
	// not be interpreted as either a tool call or a final answer.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrBackendUnavailable indicates the provider could not be reached
	// or returned a transport-level failure.
	ErrBackendUnavailable = errors.New("llm backend unavailable")
)

// Role labels a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the agent conversation.
type Message struct {
	Role Role

	// Content is the message text. For RoleTool messages it is the
	// serialized tool result.
	Content string

	// ToolCallID links a RoleTool message to the call it answers.
	ToolCallID string

	// ToolName is the tool that produced a RoleTool message.
	ToolName string

	// ToolCall is set on assistant messages that requested a tool.
	ToolCall *ToolCall
}

// ToolCall is a model request to invoke one named tool.
type ToolCall struct {
	ID     string
	Name   string
	Params map[string]any
}

// Decision is the normalized model output for one completion. Exactly
// one of ToolCall and Final is set.
type Decision struct {
	ToolCall *ToolCall
	Final    string
}

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request carries one completion request to a backend.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSpec
	Temperature  float32
	MaxTokens    int
}

// Client is the interface every model backend implements.
//
// Thread Safety: implementations must be safe for concurrent use.
type Client interface {
	// Complete sends one request and returns the model's decision.
	// Implementations respect ctx cancellation and deadlines.
	Complete(ctx context.Context, req *Request) (*Decision, error)

	// Name returns the backend identifier, for example "openai".
	Name() string

	// Model returns the configured model identifier.
	Model() string
}
