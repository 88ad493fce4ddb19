// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retry executes operations with bounded retries, exponential
// backoff, and randomized jitter.
//
// The wrapped operation must be idempotent-safe for retry to be
// semantically correct. That contract belongs to the caller; the strategy
// does not enforce it.
package retry

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/aleutian-resilience/services/resilience/telemetry"
)

// Operation is a function that can be retried.
// It returns a result on success, or an error to trigger another attempt.
type Operation func(ctx context.Context) (any, error)

// Config configures retry behavior with exponential backoff.
type Config struct {
	// MaxRetries is the maximum number of attempts (including the first).
	// Default: 3
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the wait between retries.
	// Default: 60s
	MaxDelay time.Duration

	// ExponentialBase is the multiplier for exponential backoff.
	// Default: 2.0
	ExponentialBase float64

	// Name labels this strategy's retry attempts in metrics.
	// Default: "default"
	Name string

	// Metrics receives retry attempt counters. Nil disables
	// instrumentation.
	Metrics *telemetry.Metrics
}

// DefaultConfig returns sensible defaults for retry behavior.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		BaseDelay:       1 * time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
	}
}

// Validate checks if the retry configuration is valid.
func (c Config) Validate() error {
	if c.MaxRetries < 1 {
		return ErrInvalidConfig
	}
	if c.BaseDelay <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxDelay < c.BaseDelay {
		return ErrInvalidConfig
	}
	if c.ExponentialBase < 1.0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result contains the outcome of a retry operation.
type Result struct {
	// Attempts is the number of attempts made.
	Attempts int

	// TotalDuration is the total time spent including waits.
	TotalDuration time.Duration

	// LastError is the error from the last attempt (nil if successful).
	LastError error
}

// Strategy executes operations with bounded retries and backoff.
//
// Attempts are strictly sequential: one attempt completes (success or
// failure) before the next begins. Every error triggers a retry until the
// attempt budget is exhausted; the final attempt's error is then returned
// verbatim, not wrapped.
//
// Thread Safety: Safe for concurrent use; Strategy holds no per-call state.
type Strategy struct {
	config Config
	// sleep is replaceable in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a retry strategy from the given configuration.
//
// Inputs:
//   - config: Retry configuration. Zero fields fall back to defaults.
//
// Outputs:
//   - *Strategy: Ready-to-use strategy.
func New(config Config) *Strategy {
	def := DefaultConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = def.BaseDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.ExponentialBase < 1.0 {
		config.ExponentialBase = def.ExponentialBase
	}
	if config.Name == "" {
		config.Name = "default"
	}

	return &Strategy{
		config: config,
		sleep:  sleepWithContext,
	}
}

// Config returns the strategy configuration.
func (s *Strategy) Config() Config {
	return s.config
}

// Do executes fn with bounded retries and exponential backoff.
//
// Inputs:
//   - ctx: Context for cancellation. Cancellation during a backoff wait
//     aborts immediately with the context error.
//   - fn: The operation to execute and potentially retry.
//
// Outputs:
//   - any: The result of the first successful attempt.
//   - error: Nil on success; the last attempt's error once the budget is
//     exhausted; the context error if cancelled between attempts.
//
// The wait before retry attempt n (0-based) is
// min(BaseDelay * ExponentialBase^n, MaxDelay) plus uniform jitter in
// [0, wait/10).
//
// Example:
//
//	strategy := retry.New(retry.DefaultConfig())
//	result, err := strategy.Do(ctx, func(ctx context.Context) (any, error) {
//	    return client.Fetch(ctx, key)
//	})
func (s *Strategy) Do(ctx context.Context, fn Operation) (any, error) {
	_, res, err := s.do(ctx, fn)
	return res, err
}

// DoWithResult is Do plus attempt statistics for observability.
func (s *Strategy) DoWithResult(ctx context.Context, fn Operation) (Result, any, error) {
	return s.do(ctx, fn)
}

func (s *Strategy) do(ctx context.Context, fn Operation) (Result, any, error) {
	start := time.Now()
	result := Result{}

	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if err := ctx.Err(); err != nil {
			result.LastError = err
			result.TotalDuration = time.Since(start)
			return result, nil, err
		}

		res, err := fn(ctx)
		if err == nil {
			result.LastError = nil
			result.TotalDuration = time.Since(start)
			return result, res, nil
		}
		result.LastError = err
		s.recordAttempt(ctx, attempt)

		// Don't wait after the last attempt.
		if attempt == s.config.MaxRetries-1 {
			break
		}

		wait := s.backoffFor(attempt)
		if err := s.sleep(ctx, wait); err != nil {
			result.LastError = err
			result.TotalDuration = time.Since(start)
			return result, nil, err
		}
	}

	result.TotalDuration = time.Since(start)
	return result, nil, result.LastError
}

// recordAttempt counts one failed attempt (0-based).
func (s *Strategy) recordAttempt(ctx context.Context, attempt int) {
	if s.config.Metrics == nil {
		return
	}
	s.config.Metrics.RetryAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", s.config.Name),
		attribute.Int("attempt", attempt+1),
	))
}

// backoffFor computes the jittered wait before retrying attempt (0-based).
func (s *Strategy) backoffFor(attempt int) time.Duration {
	delay := float64(s.config.BaseDelay) * pow(s.config.ExponentialBase, attempt)
	if delay > float64(s.config.MaxDelay) {
		delay = float64(s.config.MaxDelay)
	}

	// Uniform jitter in [0, delay*0.1) to spread concurrent retriers.
	jitter := rand.Float64() * delay * 0.1
	return time.Duration(delay + jitter)
}

// pow computes base^exp for small non-negative integer exponents.
func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// sleepWithContext waits for d or until ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
