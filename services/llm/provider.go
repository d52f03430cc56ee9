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
)

// Backend identifiers accepted by LLM_BACKEND_TYPE.
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendNone   = "none"
)

// Config selects and configures a model backend.
type Config struct {
	// Backend is one of "openai", "gemini" or "none". "none" runs the
	// service without a reasoning agent.
	Backend string

	APIKey string
	Model  string
}

// Provider builds clients for a configured backend. It caches the
// default client and constructs throwaway clients for requests that
// carry their own API key.
//
// Thread Safety: Provider is immutable after construction and safe for
// concurrent use.
type Provider struct {
	cfg      Config
	fallback Client
}

// NewProvider validates the configuration and builds the default client.
//
// Outputs:
//
//	*Provider - a provider whose Default may be nil when Backend is "none"
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = BackendNone
	}

	p := &Provider{cfg: cfg}
	switch cfg.Backend {
	case BackendNone:
		return p, nil
	case BackendOpenAI, BackendGemini:
		client, err := p.build(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		p.fallback = client
		return p, nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

// Backend returns the configured backend identifier.
func (p *Provider) Backend() string { return p.cfg.Backend }

// Default returns the client built from the service configuration, or
// nil when the backend is "none".
func (p *Provider) Default() Client { return p.fallback }

// For returns a client for one request. A non-empty apiKey overrides
// the configured key for the same backend; an empty apiKey returns the
// default client.
func (p *Provider) For(ctx context.Context, apiKey string) (Client, error) {
	if apiKey == "" {
		return p.fallback, nil
	}
	if p.cfg.Backend == BackendNone {
		return nil, fmt.Errorf("no llm backend configured to use the provided api key")
	}
	return p.build(ctx, apiKey)
}

func (p *Provider) build(ctx context.Context, apiKey string) (Client, error) {
	switch p.cfg.Backend {
	case BackendOpenAI:
		return NewOpenAIClient(apiKey, p.cfg.Model)
	case BackendGemini:
		return NewGeminiClient(ctx, apiKey, p.cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm backend %q", p.cfg.Backend)
	}
}
