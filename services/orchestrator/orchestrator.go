// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the Lifeboat question answering service.
//
// This package contains the main Service type that coordinates all
// components: the passenger dataset, the analysis primitive catalogue,
// the question classifier and resolver, the reasoning agent, HTTP
// routing, and observability infrastructure.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 12210, DataPath: "./data/titanic.csv"}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/AleutianAI/Lifeboat/pkg/logging"
	"github.com/AleutianAI/Lifeboat/services/agent"
	"github.com/AleutianAI/Lifeboat/services/analysis"
	"github.com/AleutianAI/Lifeboat/services/dataset"
	"github.com/AleutianAI/Lifeboat/services/llm"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/engine"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/observability"
	"github.com/AleutianAI/Lifeboat/services/orchestrator/routes"
)

// Service defines the contract for the question answering service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should be called at most once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// Config holds service configuration options.
//
// All fields are optional except DataPath; defaults are applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 12210
	Port int

	// DataPath is the passenger CSV file. Required.
	DataPath string

	// LLMBackend selects the model provider for the reasoning agent.
	// Valid values: "openai", "gemini", "none". Default: "none"
	LLMBackend string

	// LLMAPIKey is the provider API key. Required unless LLMBackend
	// is "none". Individual requests may override it.
	LLMAPIKey string

	// LLMModel is the model identifier for the selected backend.
	LLMModel string

	// AgentMaxSteps caps model decisions per agent run. Default: 5
	AgentMaxSteps int

	// LLMTimeout caps each individual model call. Default: 30s
	LLMTimeout time.Duration

	// EnableMetrics enables the Prometheus /metrics endpoint.
	// Default: true
	EnableMetrics bool

	// EnableTracing enables the stdout OpenTelemetry exporter.
	// Default: false
	EnableTracing bool

	// GinMode sets the Gin framework mode: "debug", "release", "test".
	GinMode string
}

// service implements Service for production use.
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	ds            *dataset.Dataset
	provider      *llm.Provider
	engine        *engine.Engine
	log           *logging.Logger
	tracerCleanup func(context.Context)
}

// New creates a Service with the given configuration.
//
// # Description
//
// New initializes all components in dependency order:
//  1. Applies default configuration for missing values
//  2. Loads the passenger dataset (fatal if unreadable)
//  3. Builds the primitive catalogue
//  4. Creates the model provider for the configured backend
//  5. Initializes metrics and tracing
//  6. Wires the engine and HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run service
//   - error: Non-nil if the dataset or model backend cannot be set up
func New(cfg Config) (Service, error) {
	cfg = applyConfigDefaults(cfg)

	log := logging.Default().With("service", "lifeboat")
	s := &service{config: cfg, log: log}

	ds, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	s.ds = ds
	log.Info("dataset loaded", "path", cfg.DataPath, "rows", ds.RowCount())

	registry := analysis.DefaultRegistry()

	s.provider, err = llm.NewProvider(context.Background(), llm.Config{
		Backend: cfg.LLMBackend,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}
	if s.provider.Default() == nil {
		log.Warn("no llm backend configured, reasoning questions will be rejected")
	}

	var metrics *observability.AskMetrics
	if cfg.EnableMetrics {
		metrics = observability.InitMetrics()
	}

	if cfg.EnableTracing {
		cleanup, err := initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	s.engine = engine.NewEngine(ds, registry, s.provider, agent.Config{
		MaxSteps:   cfg.AgentMaxSteps,
		LLMTimeout: cfg.LLMTimeout,
	}, metrics, log)

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Info("starting server", "port", s.config.Port, "llm_backend", s.provider.Backend())

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12210
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = llm.BackendNone
	}
	if cfg.AgentMaxSteps == 0 {
		cfg.AgentMaxSteps = agent.DefaultMaxSteps
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = agent.DefaultLLMTimeout
	}
	return cfg
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("lifeboat"))

	routes.SetupRoutes(router, s.engine, s.ds, s.provider.Backend())
	s.router = router
}

// initTracer wires a stdout span exporter. Spans go to stderr so they
// do not interleave with the JSON logs on stdout.
func initTracer() (func(context.Context), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("lifeboat")))
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logging.Default().Error("failed to shutdown tracer", "error", err)
		}
	}, nil
}

func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
