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
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements Client on top of the Gemini API using native
// function calling.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client.
//
// Inputs:
//
//	ctx - used for client initialization only
//	apiKey - the API key; must be non-empty
//	model - the model identifier, for example "gemini-2.0-flash"
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Name() string  { return "gemini" }
func (c *GeminiClient) Model() string { return c.model }

// Complete sends one generation request with the tool catalogue attached
// and normalizes the response.
func (c *GeminiClient) Complete(ctx context.Context, req *Request) (*Decision, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, toGeminiContent(m))
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
	for _, spec := range req.Tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 spec.Name,
			Description:          spec.Description,
			ParametersJsonSchema: spec.Parameters,
		})
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini completion: %v", ErrBackendUnavailable, err)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		fc := calls[0]
		params := fc.Args
		if params == nil {
			params = map[string]any{}
		}
		return &Decision{ToolCall: &ToolCall{
			ID:     fc.ID,
			Name:   fc.Name,
			Params: params,
		}}, nil
	}

	final := strings.TrimSpace(resp.Text())
	if final == "" {
		return nil, fmt.Errorf("%w: gemini returned neither function call nor text", ErrMalformedOutput)
	}
	return &Decision{Final: final}, nil
}

func toGeminiContent(m Message) *genai.Content {
	switch m.Role {
	case RoleAssistant:
		if m.ToolCall != nil {
			return &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					ID:   m.ToolCall.ID,
					Name: m.ToolCall.Name,
					Args: m.ToolCall.Params,
				}}},
			}
		}
		return genai.NewContentFromText(m.Content, genai.RoleModel)
	case RoleTool:
		return &genai.Content{
			Role: genai.RoleUser,
			Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.ToolName,
				Response: map[string]any{"result": m.Content},
			}}},
		}
	default:
		return genai.NewContentFromText(m.Content, genai.RoleUser)
	}
}
