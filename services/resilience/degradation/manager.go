// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package degradation maps aggregate system health onto a discrete
// degradation level, gates feature flags accordingly, and wraps primary
// operations with per-component fallbacks.
//
// State is process-local: levels, disabled features, and failure counters
// reset on restart. Construct one Manager per process context and inject
// it; there is no package-level singleton, and feature gating is an
// explicit IsFeatureEnabled branch at the call site.
package degradation

import (
	"context"
	"sync"
	"time"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
	"github.com/AleutianAI/aleutian-resilience/pkg/validation"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ComponentStatus is one component's reported condition.
//
// Reporters mark a component unhealthy outright, or supply an error rate
// and average response time from which a health score is derived.
type ComponentStatus struct {
	// Healthy is the reporter's binary verdict. False forces a zero
	// health score regardless of the other fields.
	Healthy bool

	// ErrorRate is the component's recent error fraction in [0, 1].
	ErrorRate float64 `validate:"gte=0,lte=1"`

	// AvgResponseTime is the component's recent mean latency in seconds.
	AvgResponseTime float64 `validate:"gte=0"`
}

// Operation is a primary operation guarded by ExecuteWithFallback.
type Operation func(ctx context.Context, args ...any) (any, error)

// TransitionFunc is notified after a level transition, outside the
// manager lock. Delivery hooks (alerts, dashboards) live behind it.
type TransitionFunc func(from, to Level, score float64)

// Config configures a Manager.
type Config struct {
	// Policies is the level table. Default: DefaultPolicies().
	Policies Policies

	// Logger receives transition and fallback diagnostics. Must not be
	// nil; pass logging.Discard() to silence.
	Logger *logging.Logger

	// Metrics receives level gauges and fallback counters. Nil disables
	// instrumentation.
	Metrics *telemetry.Metrics

	// OnTransition is invoked after each level change. May be nil.
	OnTransition TransitionFunc
}

// Status is an observability snapshot of the manager.
type Status struct {
	Level            string             `json:"level"`
	AggregateScore   float64            `json:"aggregate_score"`
	DisabledFeatures []string           `json:"disabled_features"`
	ComponentHealth  map[string]float64 `json:"component_health"`
	RecoveryAttempts map[string]int     `json:"recovery_attempts"`
	LastEvaluation   time.Time          `json:"last_evaluation,omitempty"`
}

// Manager is the health-driven degradation state machine.
//
// # Description
//
// EvaluateSystemHealth turns reported component statuses into an
// aggregate score and selects the least-degraded level whose threshold
// the score still meets. Transitions swap the disabled feature set
// wholesale; callers gate work with IsFeatureEnabled. ExecuteWithFallback
// wraps a primary operation with the built-in fallback registered for
// that component, tracking consecutive failures per component.
//
// # Limitations
//
//   - Evaluation is demand-driven; pair with a monitor loop for
//     periodic re-evaluation
//   - The consecutive-failure counters are advisory; nothing in the
//     manager consumes them
//
// Thread Safety: Safe for concurrent use. Mutations are serialized so
// concurrent readers never observe a half-applied transition.
type Manager struct {
	policies     Policies
	logger       *logging.Logger
	metrics      *telemetry.Metrics
	onTransition TransitionFunc
	fallbacks    map[string]builtinFallback

	mu               sync.RWMutex
	currentLevel     Level
	disabledFeatures map[Feature]bool
	componentHealth  map[string]float64
	recoveryAttempts map[string]int
	aggregateScore   float64
	lastEvaluation   time.Time
}

// NewManager creates a degradation manager starting at LevelNormal with
// no disabled features.
//
// Inputs:
//   - cfg: Manager configuration. cfg.Logger must not be nil. An invalid
//     policy table is rejected.
//
// Outputs:
//   - *Manager: Ready-to-use manager.
//   - error: ErrInvalidPolicy if the level table fails validation.
func NewManager(cfg Config) (*Manager, error) {
	policies := cfg.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	if err := policies.Validate(); err != nil {
		return nil, err
	}

	return &Manager{
		policies:         policies,
		logger:           cfg.Logger.With("subsystem", "degradation_manager"),
		metrics:          cfg.Metrics,
		onTransition:     cfg.OnTransition,
		fallbacks:        builtinFallbacks(),
		currentLevel:     LevelNormal,
		disabledFeatures: make(map[Feature]bool),
		componentHealth:  make(map[string]float64),
		recoveryAttempts: make(map[string]int),
	}, nil
}

// EvaluateSystemHealth recomputes the aggregate score and transitions
// levels if needed.
//
// # Description
//
// Each component scores 0.0 when reported unhealthy, otherwise
// 1 - min(errorRate, 0.5) - min(avgResponseTime/10, 0.3), floored at 0.
// The aggregate is the arithmetic mean (0.0 with no components). The
// selected level is the least-degraded one whose MinHealthScore the
// aggregate meets, scanning normal through emergency; Maintenance is the
// fall-through. Evaluation never fails: malformed statuses are clamped
// into range and invalid component names are dropped with a warning.
//
// # Inputs
//
//   - statuses: Reported condition per component name.
//
// # Outputs
//
//   - Level: The (possibly unchanged) current level after evaluation.
func (m *Manager) EvaluateSystemHealth(statuses map[string]ComponentStatus) Level {
	scores := make(map[string]float64, len(statuses))
	for name, status := range statuses {
		if err := validation.ValidateComponentName(name); err != nil {
			m.logger.Warn("dropping component with invalid name", "error", err)
			continue
		}
		if err := validation.Struct(status); err != nil {
			m.logger.Warn("clamping malformed component status",
				"component", name, "error", err)
			status = clampStatus(status)
		}
		scores[name] = healthScore(status)
	}

	aggregate := 0.0
	if len(scores) > 0 {
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		aggregate = sum / float64(len(scores))
	}

	target := m.selectLevel(aggregate)

	m.mu.Lock()
	m.componentHealth = scores
	m.aggregateScore = aggregate
	m.lastEvaluation = time.Now()

	from := m.currentLevel
	changed := target != from
	if changed {
		m.currentLevel = target
		m.disabledFeatures = make(map[Feature]bool)
		for _, f := range m.policies[target].DisabledFeatures {
			m.disabledFeatures[f] = true
		}
	}
	hook := m.onTransition
	m.mu.Unlock()

	if changed {
		m.logger.Info("degradation level changed",
			"from", from,
			"to", target,
			"aggregate_score", aggregate,
			"disabled_features", len(m.policies[target].DisabledFeatures))

		if m.metrics != nil {
			ctx := context.Background()
			m.metrics.DegradationLevel.Record(ctx, int64(target))
			m.metrics.LevelTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("from", from.String()),
				attribute.String("to", target.String()),
			))
		}
		if hook != nil {
			hook(from, target, aggregate)
		}
	}

	return target
}

// healthScore converts one component status into a score in [0, 1].
func healthScore(status ComponentStatus) float64 {
	if !status.Healthy {
		return 0.0
	}

	score := 1.0 - min(status.ErrorRate, 0.5) - min(status.AvgResponseTime/10, 0.3)
	if score < 0 {
		return 0.0
	}
	return score
}

// clampStatus forces malformed numeric fields into their legal ranges.
func clampStatus(status ComponentStatus) ComponentStatus {
	if status.ErrorRate < 0 {
		status.ErrorRate = 0
	}
	if status.ErrorRate > 1 {
		status.ErrorRate = 1
	}
	if status.AvgResponseTime < 0 {
		status.AvgResponseTime = 0
	}
	return status
}

// selectLevel picks the least-degraded level the score still qualifies
// for.
func (m *Manager) selectLevel(score float64) Level {
	for _, level := range selectableLevels {
		if score >= m.policies[level].MinHealthScore {
			return level
		}
	}
	return LevelMaintenance
}

// CurrentLevel returns the current degradation level.
func (m *Manager) CurrentLevel() Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentLevel
}

// IsFeatureEnabled reports whether the feature is currently enabled.
func (m *Manager) IsFeatureEnabled(f Feature) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.disabledFeatures[f]
}

// TimeoutMultiplier returns the current level's timeout multiplier,
// suitable for timeout.Manager.Timeout.
func (m *Manager) TimeoutMultiplier() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policies[m.currentLevel].TimeoutMultiplier
}

// CacheTTL returns the current level's cache TTL.
func (m *Manager) CacheTTL() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policies[m.currentLevel].CacheTTL
}

// RecoveryAttempts returns the consecutive-failure count for a component.
func (m *Manager) RecoveryAttempts(component string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recoveryAttempts[component]
}

// ExecuteWithFallback runs the primary operation, falling back to the
// component's built-in degraded handler on failure.
//
// # Description
//
// Success resets the component's consecutive-failure counter and returns
// the primary result. Failure increments the counter; if a built-in
// fallback exists for the exact component name it runs with
// component-specific argument remapping, and its result or error is
// returned. Without a registered fallback the primary's error propagates
// unchanged.
//
// # Inputs
//
//   - ctx: Context passed to primary and fallback.
//   - component: Component name keying the built-in fallback map.
//   - primary: The primary operation.
//   - args: Arguments forwarded to primary and remapped for the fallback.
//
// # Outputs
//
//   - any: Primary result, or the fallback's degraded result.
//   - error: Non-nil only when the operation truly failed: primary
//     failed and no fallback exists, or the fallback itself failed.
func (m *Manager) ExecuteWithFallback(ctx context.Context, component string, primary Operation, args ...any) (any, error) {
	result, err := primary(ctx, args...)
	if err == nil {
		m.mu.Lock()
		m.recoveryAttempts[component] = 0
		m.mu.Unlock()
		return result, nil
	}

	m.mu.Lock()
	m.recoveryAttempts[component]++
	attempts := m.recoveryAttempts[component]
	m.mu.Unlock()

	m.logger.Warn("primary operation failed",
		"component", component,
		"consecutive_failures", attempts,
		"error", err)

	fb, ok := m.fallbacks[component]
	if !ok {
		return nil, err
	}

	fbResult, fbErr := fb(ctx, args...)
	if m.metrics != nil {
		outcome := "success"
		if fbErr != nil {
			outcome = "failure"
		}
		m.metrics.FallbacksTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("component", component),
			attribute.String("outcome", outcome),
		))
	}
	if fbErr != nil {
		m.logger.Error("fallback failed",
			"component", component,
			"error", fbErr)
		return nil, fbErr
	}

	m.logger.Info("fallback served degraded result", "component", component)
	return fbResult, nil
}

// Status returns an observability snapshot.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	disabled := make([]string, 0, len(m.disabledFeatures))
	for _, f := range AllFeatures() {
		if m.disabledFeatures[f] {
			disabled = append(disabled, string(f))
		}
	}

	health := make(map[string]float64, len(m.componentHealth))
	for k, v := range m.componentHealth {
		health[k] = v
	}
	attempts := make(map[string]int, len(m.recoveryAttempts))
	for k, v := range m.recoveryAttempts {
		attempts[k] = v
	}

	return Status{
		Level:            m.currentLevel.String(),
		AggregateScore:   m.aggregateScore,
		DisabledFeatures: disabled,
		ComponentHealth:  health,
		RecoveryAttempts: attempts,
		LastEvaluation:   m.lastEvaluation,
	}
}
