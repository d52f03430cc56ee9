// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAskMetrics_RecordQuestion(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordQuestion(RouteDirect, StatusSuccess, 0.02)
	m.RecordQuestion(RouteDirect, StatusSuccess, 0.03)
	m.RecordQuestion(RouteAgent, StatusDegraded, 4.8)

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.QuestionsTotal.WithLabelValues(RouteDirect, StatusSuccess)))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.QuestionsTotal.WithLabelValues(RouteAgent, StatusDegraded)))
	assert.Equal(t, 0.0,
		testutil.ToFloat64(m.QuestionsTotal.WithLabelValues(RouteAgent, StatusError)))
}

func TestAskMetrics_RecordPrimitives(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordPrimitives([]string{"numeric_summary", "numeric_summary", "bar_chart"})

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.PrimitiveInvocationsTotal.WithLabelValues("numeric_summary")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.PrimitiveInvocationsTotal.WithLabelValues("bar_chart")))
}

func TestAskMetrics_RecordReroute(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordReroute()
	m.RecordReroute()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AgentReroutesTotal))
}

func TestAskMetrics_SeparateRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.RecordReroute()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.AgentReroutesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AgentReroutesTotal))
}
