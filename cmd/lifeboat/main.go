// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command lifeboat starts the Titanic question answering HTTP server.
//
// It reads configuration from environment variables and starts the
// server.
//
// # Environment Variables
//
//   - LIFEBOAT_PORT: HTTP server port (default: 12210)
//   - TITANIC_DATA_PATH: Passenger CSV file (default: ./data/titanic.csv)
//   - LLM_BACKEND_TYPE: Model provider - openai, gemini, none (default: none)
//   - OPENAI_API_KEY / GEMINI_API_KEY: Provider API key
//   - OPENAI_MODEL / GEMINI_MODEL: Model identifier
//   - AGENT_MAX_STEPS: Model decisions per agent run (default: 5)
//   - LLM_TIMEOUT_SECONDS: Per-call model timeout (default: 30)
//   - LIFEBOAT_TRACING: Set to "1" to emit stdout trace spans
//
// # Usage
//
//	# Build
//	go build -o lifeboat ./cmd/lifeboat
//
//	# Run
//	TITANIC_DATA_PATH=./data/titanic.csv ./lifeboat
package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/Lifeboat/pkg/logging"
	"github.com/AleutianAI/Lifeboat/services/llm"
	"github.com/AleutianAI/Lifeboat/services/orchestrator"
)

func main() {
	logger := logging.Default()

	backend := getEnvString("LLM_BACKEND_TYPE", llm.BackendNone)

	cfg := orchestrator.Config{
		Port:          getEnvInt("LIFEBOAT_PORT", 12210),
		DataPath:      getEnvString("TITANIC_DATA_PATH", "./data/titanic.csv"),
		LLMBackend:    backend,
		LLMAPIKey:     backendAPIKey(backend),
		LLMModel:      backendModel(backend),
		AgentMaxSteps: getEnvInt("AGENT_MAX_STEPS", 5),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		EnableMetrics: true,
		EnableTracing: os.Getenv("LIFEBOAT_TRACING") == "1",
	}

	logger.Info("starting lifeboat",
		"port", cfg.Port,
		"data_path", cfg.DataPath,
		"llm_backend", cfg.LLMBackend,
	)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// backendAPIKey picks the API key variable for the selected backend.
func backendAPIKey(backend string) string {
	switch backend {
	case llm.BackendOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case llm.BackendGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// backendModel picks the model variable for the selected backend.
func backendModel(backend string) string {
	switch backend {
	case llm.BackendOpenAI:
		return getEnvString("OPENAI_MODEL", "gpt-4o-mini")
	case llm.BackendGemini:
		return getEnvString("GEMINI_MODEL", "gemini-2.0-flash")
	default:
		return ""
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
