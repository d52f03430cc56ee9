// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the question
// answering service.
//
// # Description
//
// Metrics cover the full question lifecycle:
//   - Question counters by route and outcome
//   - Answer latency histograms by route
//   - Primitive invocation counters
//   - Agent step histograms
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "lifeboat"

// Subsystem for question answering metrics
const askSubsystem = "ask"

// Route labels for question metrics.
const (
	RouteDirect = "direct"
	RouteAgent  = "agent"
)

// Status labels for question metrics.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// AskMetrics holds all Prometheus metrics for question answering.
//
// # Fields
//
//   - QuestionsTotal: Counter of questions by route and status
//   - AnswerDurationSeconds: Histogram of end-to-end answer latency
//   - PrimitiveInvocationsTotal: Counter of primitive executions by name
//   - AgentSteps: Histogram of model decisions consumed per agent run
//   - AgentReroutesTotal: Counter of direct questions rerouted to the agent
//
// # Thread Safety
//
// All operations are thread-safe.
type AskMetrics struct {
	// QuestionsTotal counts answered questions.
	// Labels: route (direct, agent), status (success, degraded, error)
	QuestionsTotal *prometheus.CounterVec

	// AnswerDurationSeconds measures end-to-end answer latency.
	// Labels: route (direct, agent)
	AnswerDurationSeconds *prometheus.HistogramVec

	// PrimitiveInvocationsTotal counts executed primitives.
	// Labels: primitive
	PrimitiveInvocationsTotal *prometheus.CounterVec

	// AgentSteps measures model decisions consumed per agent run.
	AgentSteps prometheus.Histogram

	// AgentReroutesTotal counts direct questions that fell through to
	// the agent because no primitive pattern matched.
	AgentReroutesTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance registered against the
// default Prometheus registry. Initialized by InitMetrics().
var DefaultMetrics *AskMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics against the default
// registry. Call once at application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *AskMetrics {
	DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewMetrics creates metrics registered against the given registerer.
// Tests pass a throwaway registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *AskMetrics {
	factory := promauto.With(reg)

	return &AskMetrics{
		QuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: askSubsystem,
				Name:      "questions_total",
				Help:      "Total questions answered by route and status",
			},
			[]string{"route", "status"},
		),

		AnswerDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: askSubsystem,
				Name:      "answer_duration_seconds",
				Help:      "End-to-end answer latency in seconds",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 15, 30, 60},
			},
			[]string{"route"},
		),

		PrimitiveInvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: askSubsystem,
				Name:      "primitive_invocations_total",
				Help:      "Total primitive executions by name",
			},
			[]string{"primitive"},
		),

		AgentSteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: askSubsystem,
				Name:      "agent_steps",
				Help:      "Model decisions consumed per agent run",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
		),

		AgentReroutesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: askSubsystem,
				Name:      "agent_reroutes_total",
				Help:      "Direct questions rerouted to the agent",
			},
		),
	}
}

// RecordQuestion records one answered question.
//
// # Inputs
//
//   - route: RouteDirect or RouteAgent.
//   - status: StatusSuccess, StatusDegraded, or StatusError.
//   - seconds: End-to-end latency.
func (m *AskMetrics) RecordQuestion(route, status string, seconds float64) {
	m.QuestionsTotal.WithLabelValues(route, status).Inc()
	m.AnswerDurationSeconds.WithLabelValues(route).Observe(seconds)
}

// RecordPrimitives records the primitives executed for one question.
func (m *AskMetrics) RecordPrimitives(names []string) {
	for _, name := range names {
		m.PrimitiveInvocationsTotal.WithLabelValues(name).Inc()
	}
}

// RecordAgentRun records the step count of one agent run.
func (m *AskMetrics) RecordAgentRun(steps int) {
	m.AgentSteps.Observe(float64(steps))
}

// RecordReroute records a direct question that fell through to the agent.
func (m *AskMetrics) RecordReroute() {
	m.AgentReroutesTotal.Inc()
}
