// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package circuit provides per-target circuit breakers.
//
// A breaker stops calling a failing downstream target for a cooldown
// window before probing it again, preventing cascading failures. The
// monitor loop feeds breaker state into degradation evaluation: an open
// circuit reports its target as unhealthy.
package circuit

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation - requests pass through.
	StateClosed State = iota
	// StateOpen means too many failures - requests are rejected.
	StateOpen
	// StateHalfOpen is testing recovery - limited requests allowed.
	StateHalfOpen
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures breaker behavior.
type Config struct {
	// FailureThreshold is the number of failures before opening (default: 3).
	FailureThreshold int

	// SuccessThreshold is successes needed to close from half-open (default: 2).
	SuccessThreshold int

	// OpenDuration is how long to stay open before testing recovery (default: 30s).
	OpenDuration time.Duration

	// HalfOpenMax is max concurrent requests in half-open state (default: 1).
	HalfOpenMax int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenDuration:     30 * time.Second,
		HalfOpenMax:      1,
	}
}

// Stats contains breaker statistics.
type Stats struct {
	Target          string    `json:"target"`
	State           string    `json:"state"`
	TotalCalls      int64     `json:"total_calls"`
	TotalFailures   int64     `json:"total_failures"`
	TotalRejections int64     `json:"total_rejections"`
	CurrentFailures int       `json:"current_failures"`
	LastStateChange time.Time `json:"last_state_change"`
}

// Breaker guards calls to a single downstream target.
//
// The breaker has three states:
//
//   - Closed: Normal operation, requests pass through.
//   - Open: After FailureThreshold failures, requests are rejected.
//   - Half-Open: After OpenDuration, limited requests test recovery.
//
// Thread Safety: Safe for concurrent use.
type Breaker struct {
	target string
	config Config

	mu              sync.RWMutex
	state           State
	failures        int
	successes       int
	lastStateChange time.Time
	halfOpenActive  int

	totalCalls      int64
	totalFailures   int64
	totalRejections int64
}

// NewBreaker creates a breaker for the named target.
//
// Inputs:
//   - target: Downstream target name, used in stats and logs.
//   - config: Breaker configuration.
//
// Outputs:
//   - *Breaker: Closed breaker ready for use.
func NewBreaker(target string, config Config) *Breaker {
	return &Breaker{
		target:          target,
		config:          config,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Target returns the target name.
func (b *Breaker) Target() string {
	return b.target
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Allow checks if a request should be allowed.
//
// Outputs:
//   - bool: True if the request should proceed.
//   - func(): Release function to call when the request completes
//     (may be nil).
//
// Usage:
//
//	allowed, release := b.Allow()
//	if !allowed {
//	    return circuit.ErrOpen
//	}
//	if release != nil {
//	    defer release()
//	}
//	// ... make request ...
func (b *Breaker) Allow() (bool, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++

	switch b.state {
	case StateClosed:
		return true, nil

	case StateOpen:
		if time.Since(b.lastStateChange) > b.config.OpenDuration {
			b.transitionTo(StateHalfOpen)
			return b.tryHalfOpen()
		}
		b.totalRejections++
		return false, nil

	case StateHalfOpen:
		return b.tryHalfOpen()
	}

	return false, nil
}

// tryHalfOpen attempts to allow a probe in half-open state.
// Must be called with lock held.
func (b *Breaker) tryHalfOpen() (bool, func()) {
	if b.halfOpenActive >= b.config.HalfOpenMax {
		b.totalRejections++
		return false, nil
	}

	b.halfOpenActive++
	return true, func() {
		b.mu.Lock()
		b.halfOpenActive--
		b.mu.Unlock()
	}
}

// RecordSuccess records a successful request.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed request.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.failures++
	b.successes = 0

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	}
}

// transitionTo changes state. Must be called with lock held.
func (b *Breaker) transitionTo(newState State) {
	b.state = newState
	b.lastStateChange = time.Now()
	b.failures = 0
	b.successes = 0
}

// Execute wraps a function with circuit breaker protection.
//
// Inputs:
//   - ctx: Context for the operation.
//   - fn: The function to execute.
//
// Outputs:
//   - error: ErrOpen if rejected, or the error from fn.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	allowed, release := b.Allow()
	if !allowed {
		return ErrOpen
	}
	if release != nil {
		defer release()
	}

	err := fn()
	if err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()
	return nil
}

// Stats returns breaker statistics.
func (b *Breaker) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Stats{
		Target:          b.target,
		State:           b.state.String(),
		TotalCalls:      b.totalCalls,
		TotalFailures:   b.totalFailures,
		TotalRejections: b.totalRejections,
		CurrentFailures: b.failures,
		LastStateChange: b.lastStateChange,
	}
}

// Reset resets the breaker to closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.halfOpenActive = 0
	b.lastStateChange = time.Now()
}
