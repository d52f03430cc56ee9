// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client on top of the OpenAI chat completions
// API using native tool calling.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client.
//
// Inputs:
//
//	apiKey - the API key; must be non-empty
//	model - the model identifier, for example "gpt-4o-mini"
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (c *OpenAIClient) Name() string  { return "openai" }
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends one chat completion request with the tool catalogue
// attached and normalizes the response.
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Decision, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, spec := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai completion: %v", ErrBackendUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", ErrMalformedOutput)
	}

	choice := resp.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		// Only the first tool call is honoured; the agent runs one
		// tool per step.
		tc := choice.ToolCalls[0]
		params := map[string]any{}
		if args := strings.TrimSpace(tc.Function.Arguments); args != "" {
			if err := json.Unmarshal([]byte(args), &params); err != nil {
				return nil, fmt.Errorf("%w: tool arguments are not valid JSON: %v",
					ErrMalformedOutput, err)
			}
		}
		return &Decision{ToolCall: &ToolCall{
			ID:     tc.ID,
			Name:   tc.Function.Name,
			Params: params,
		}}, nil
	}

	final := strings.TrimSpace(choice.Content)
	if final == "" {
		return nil, fmt.Errorf("%w: openai returned neither tool call nor text", ErrMalformedOutput)
	}
	return &Decision{Final: final}, nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	switch m.Role {
	case RoleTool:
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
	case RoleAssistant:
		msg := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: m.Content,
		}
		if m.ToolCall != nil {
			args, _ := json.Marshal(m.ToolCall.Params)
			msg.ToolCalls = []openai.ToolCall{{
				ID:   m.ToolCall.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      m.ToolCall.Name,
					Arguments: string(args),
				},
			}}
		}
		return msg
	default:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: m.Content,
		}
	}
}
