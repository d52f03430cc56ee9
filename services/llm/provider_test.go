// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("none backend has no default client", func(t *testing.T) {
		p, err := NewProvider(ctx, Config{Backend: BackendNone})
		require.NoError(t, err)
		assert.Nil(t, p.Default())
	})

	t.Run("empty backend defaults to none", func(t *testing.T) {
		p, err := NewProvider(ctx, Config{})
		require.NoError(t, err)
		assert.Equal(t, BackendNone, p.Backend())
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		_, err := NewProvider(ctx, Config{Backend: "anthropic"})
		assert.Error(t, err)
	})

	t.Run("openai requires an api key", func(t *testing.T) {
		_, err := NewProvider(ctx, Config{Backend: BackendOpenAI, Model: "gpt-4o-mini"})
		assert.Error(t, err)
	})

	t.Run("openai requires a model", func(t *testing.T) {
		_, err := NewProvider(ctx, Config{Backend: BackendOpenAI, APIKey: "sk-test"})
		assert.Error(t, err)
	})

	t.Run("openai builds a default client", func(t *testing.T) {
		p, err := NewProvider(ctx, Config{
			Backend: BackendOpenAI,
			APIKey:  "sk-test",
			Model:   "gpt-4o-mini",
		})
		require.NoError(t, err)
		require.NotNil(t, p.Default())
		assert.Equal(t, "openai", p.Default().Name())
		assert.Equal(t, "gpt-4o-mini", p.Default().Model())
	})
}

func TestProvider_For(t *testing.T) {
	ctx := context.Background()

	t.Run("empty key returns the default client", func(t *testing.T) {
		p, err := NewProvider(ctx, Config{
			Backend: BackendOpenAI,
			APIKey:  "sk-test",
			Model:   "gpt-4o-mini",
		})
		require.NoError(t, err)

		client, err := p.For(ctx, "")
		require.NoError(t, err)
		assert.Same(t, p.Default(), client)
	})

	t.Run("override key builds a fresh client", func(t *testing.T) {
		p, err := NewProvider(ctx, Config{
			Backend: BackendOpenAI,
			APIKey:  "sk-test",
			Model:   "gpt-4o-mini",
		})
		require.NoError(t, err)

		client, err := p.For(ctx, "sk-override")
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.NotSame(t, p.Default(), client)
	})

	t.Run("override key without a backend fails", func(t *testing.T) {
		p, err := NewProvider(ctx, Config{Backend: BackendNone})
		require.NoError(t, err)

		_, err = p.For(ctx, "sk-override")
		assert.Error(t, err)
	})
}

func TestMockClient_Script(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient(
		ToolCallStep("numeric_summary", map[string]any{"column": "Age"}),
		FinalStep("done"),
	)

	first, err := mock.Complete(ctx, &Request{})
	require.NoError(t, err)
	require.NotNil(t, first.ToolCall)
	assert.Equal(t, "numeric_summary", first.ToolCall.Name)

	second, err := mock.Complete(ctx, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "done", second.Final)

	_, err = mock.Complete(ctx, &Request{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, 3, mock.Calls())
}
