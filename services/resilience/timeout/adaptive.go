// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package timeout derives per-operation timeout recommendations from
// observed latency instead of fixed constants.
package timeout

import (
	"sort"
	"sync"
	"time"
)

const (
	// minSamples is the history length required before an estimate is
	// computed; below this the base timeout is used.
	minSamples = 10

	// failureWeight inflates failed executions so slow failures push the
	// estimate up faster than slow successes.
	failureWeight = 1.5

	// p95Buffer is the safety margin applied on top of the P95 latency.
	p95Buffer = 1.2
)

// Config configures the adaptive timeout manager.
type Config struct {
	// BaseTimeout is returned for operations without enough history.
	// Default: 30s
	BaseTimeout time.Duration

	// MaxHistorySize bounds the per-operation sample window; the oldest
	// sample is evicted once the window is full. Default: 100
	MaxHistorySize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseTimeout:    30 * time.Second,
		MaxHistorySize: 100,
	}
}

// history is the rolling weighted sample window for one operation.
type history struct {
	samples  []time.Duration
	estimate time.Duration // 0 until minSamples reached
}

// Manager maintains rolling performance history per named operation and
// computes a P95-based timeout recommendation.
//
// The estimate is a snapshot, not a smoothed series: each recomputation
// sorts the current window, takes the value at index int(len*0.95), and
// applies a 1.2x buffer. Failed executions are weighted 1.5x before entry
// so repeated failures raise the recommendation.
//
// Thread Safety: Safe for concurrent use.
type Manager struct {
	config Config

	mu        sync.Mutex
	histories map[string]*history
}

// NewManager creates an adaptive timeout manager.
//
// Inputs:
//   - config: Manager configuration. Zero fields fall back to defaults.
//
// Outputs:
//   - *Manager: Ready-to-use manager with empty history.
func NewManager(config Config) *Manager {
	def := DefaultConfig()
	if config.BaseTimeout <= 0 {
		config.BaseTimeout = def.BaseTimeout
	}
	if config.MaxHistorySize <= 0 {
		config.MaxHistorySize = def.MaxHistorySize
	}

	return &Manager{
		config:    config,
		histories: make(map[string]*history),
	}
}

// Record adds an execution sample for the operation and refreshes its
// timeout estimate.
//
// Inputs:
//   - operation: The operation name the sample belongs to.
//   - elapsed: Observed execution time.
//   - success: Whether the execution succeeded. Failures are weighted
//     1.5x before entering the window.
func (m *Manager) Record(operation string, elapsed time.Duration, success bool) {
	weighted := elapsed
	if !success {
		weighted = time.Duration(float64(elapsed) * failureWeight)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.histories[operation]
	if h == nil {
		h = &history{samples: make([]time.Duration, 0, m.config.MaxHistorySize)}
		m.histories[operation] = h
	}

	h.samples = append(h.samples, weighted)
	if len(h.samples) > m.config.MaxHistorySize {
		h.samples = h.samples[1:]
	}

	m.recompute(h)
}

// recompute refreshes the estimate from the current window.
// Must be called with the lock held.
func (m *Manager) recompute(h *history) {
	if len(h.samples) < minSamples {
		return
	}

	sorted := make([]time.Duration, len(h.samples))
	copy(sorted, h.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p95 := sorted[int(float64(len(sorted))*0.95)]
	h.estimate = time.Duration(float64(p95) * p95Buffer)
}

// Timeout returns the recommended timeout for the operation.
//
// Inputs:
//   - operation: The operation name.
//   - multiplier: Degradation multiplier from the current degradation
//     level; 1.0 is a no-op.
//
// Outputs:
//   - time.Duration: (estimate or BaseTimeout) * multiplier. Operations
//     with fewer than 10 recorded samples use BaseTimeout.
func (m *Manager) Timeout(operation string, multiplier float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := m.config.BaseTimeout
	if h := m.histories[operation]; h != nil && h.estimate > 0 {
		base = h.estimate
	}

	return time.Duration(float64(base) * multiplier)
}

// SampleCount returns the current window length for the operation.
func (m *Manager) SampleCount(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.histories[operation]; h != nil {
		return len(h.samples)
	}
	return 0
}
