// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides OpenTelemetry metrics for the resilience
// subsystem.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the resilience subsystem.
//
// Description:
//
//	Provides standard counters, histograms, and gauges for health checks,
//	degradation transitions, retries, fallbacks, and circuit breakers.
//	All metrics use the "resilience_" prefix for consistent naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- Health Metrics ---

	// HealthChecksTotal counts health checks by check name and resulting status.
	HealthChecksTotal metric.Int64Counter

	// HealthCheckDuration records individual health check duration in seconds.
	HealthCheckDuration metric.Float64Histogram

	// AggregationsTotal counts aggregation cycles by overall status.
	AggregationsTotal metric.Int64Counter

	// --- Degradation Metrics ---

	// DegradationLevel tracks the current degradation level ordinal
	// (0=normal .. 4=maintenance).
	DegradationLevel metric.Int64Gauge

	// LevelTransitionsTotal counts degradation level transitions by from/to.
	LevelTransitionsTotal metric.Int64Counter

	// --- Execution Metrics ---

	// RetryAttemptsTotal counts retry attempts by outcome.
	RetryAttemptsTotal metric.Int64Counter

	// FallbacksTotal counts fallback executions by component and outcome.
	FallbacksTotal metric.Int64Counter

	// --- Circuit Metrics ---

	// CircuitState tracks circuit breaker state per target
	// (0=closed, 1=open, 2=half-open).
	CircuitState metric.Int64Gauge
}

// NewMetrics creates a Metrics instance with all instruments registered.
//
// Description:
//
//	Registers all pre-defined metrics with the provided meter.
//	Returns an error if any instrument registration fails.
//
// Inputs:
//
//	meter - The OTel meter to use for instrument registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all instruments initialized.
//	error - Non-nil if instrument registration fails.
//
// Example:
//
//	meter := otel.Meter("resilience")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.HealthChecksTotal.Add(ctx, 1, ...)
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.HealthChecksTotal, err = meter.Int64Counter(
		"resilience_health_checks_total",
		metric.WithDescription("Total health checks by check name and status"),
	); err != nil {
		return nil, fmt.Errorf("create health checks counter: %w", err)
	}

	if m.HealthCheckDuration, err = meter.Float64Histogram(
		"resilience_health_check_duration_seconds",
		metric.WithDescription("Health check duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create health check duration histogram: %w", err)
	}

	if m.AggregationsTotal, err = meter.Int64Counter(
		"resilience_aggregations_total",
		metric.WithDescription("Total aggregation cycles by overall status"),
	); err != nil {
		return nil, fmt.Errorf("create aggregations counter: %w", err)
	}

	if m.DegradationLevel, err = meter.Int64Gauge(
		"resilience_degradation_level",
		metric.WithDescription("Current degradation level (0=normal .. 4=maintenance)"),
	); err != nil {
		return nil, fmt.Errorf("create degradation level gauge: %w", err)
	}

	if m.LevelTransitionsTotal, err = meter.Int64Counter(
		"resilience_level_transitions_total",
		metric.WithDescription("Total degradation level transitions by from/to level"),
	); err != nil {
		return nil, fmt.Errorf("create level transitions counter: %w", err)
	}

	if m.RetryAttemptsTotal, err = meter.Int64Counter(
		"resilience_retry_attempts_total",
		metric.WithDescription("Total retry attempts by outcome"),
	); err != nil {
		return nil, fmt.Errorf("create retry attempts counter: %w", err)
	}

	if m.FallbacksTotal, err = meter.Int64Counter(
		"resilience_fallbacks_total",
		metric.WithDescription("Total fallback executions by component and outcome"),
	); err != nil {
		return nil, fmt.Errorf("create fallbacks counter: %w", err)
	}

	if m.CircuitState, err = meter.Int64Gauge(
		"resilience_circuit_state",
		metric.WithDescription("Circuit breaker state per target (0=closed, 1=open, 2=half-open)"),
	); err != nil {
		return nil, fmt.Errorf("create circuit state gauge: %w", err)
	}

	return m, nil
}
