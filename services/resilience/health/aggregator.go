// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package health produces point-in-time health snapshots across a fixed
// roster of service endpoints plus host resource checks.
//
// Individual check failures degrade that check's status only; they never
// propagate as errors out of aggregation, and the background monitoring
// loop logs and continues indefinitely rather than terminating.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPClient issues bounded-timeout health probes.
// *http.Client satisfies it; tests inject a mock.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures an Aggregator.
type Config struct {
	// Checks is the fixed roster of service checks, run every cycle in
	// this order.
	Checks []ServiceCheck

	// Sampler provides host resource usage. Nil disables resource checks.
	Sampler ResourceSampler

	// HTTPClient overrides the probe client. Default: http.Client with
	// keep-alives disabled (probes should not hold connections open).
	HTTPClient HTTPClient

	// Logger receives monitoring-loop and check diagnostics. Must not be
	// nil; pass logging.Discard() to silence.
	Logger *logging.Logger

	// Metrics receives check counters and durations. Nil disables
	// instrumentation.
	Metrics *telemetry.Metrics

	// OnSnapshot is invoked after each background monitoring cycle with
	// the fresh snapshot, on the monitoring goroutine. May be nil.
	// Degradation evaluation hangs off this hook.
	OnSnapshot func(*AggregatedHealth)

	// CheckTimeout, when non-nil, is consulted per probe with the
	// check's configured timeout and may return an adjusted one.
	// Adaptive timeout management hangs off this hook; a non-positive
	// return falls back to the configured timeout.
	CheckTimeout func(name string, configured time.Duration) time.Duration
}

// Aggregator runs the configured checks concurrently and derives an
// overall status.
//
// # Description
//
// Each AggregateHealth call fans out every configured service check plus
// the resource checks, bounded by each check's own timeout; a failing
// check never blocks or cancels the others. The most recent snapshot is
// retained process-locally.
//
// # Limitations
//
//   - Point-in-time snapshots; state may change immediately after
//   - No retries: retry policy belongs to callers, not the aggregator
//
// Thread Safety: Safe for concurrent use.
type Aggregator struct {
	checks       []ServiceCheck
	sampler      ResourceSampler
	client       HTTPClient
	logger       *logging.Logger
	metrics      *telemetry.Metrics
	onSnapshot   func(*AggregatedHealth)
	checkTimeout func(string, time.Duration) time.Duration

	mu        sync.Mutex
	lastCheck *AggregatedHealth

	loopMu   sync.Mutex
	loopStop context.CancelFunc
	loopDone chan struct{}
}

// NewAggregator creates an aggregator from the given configuration.
//
// Inputs:
//   - cfg: Aggregator configuration. cfg.Logger must not be nil.
//
// Outputs:
//   - *Aggregator: Ready-to-use aggregator; no background work starts
//     until StartMonitoring.
func NewAggregator(cfg Config) *Aggregator {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
		}
	}

	return &Aggregator{
		checks:       cfg.Checks,
		sampler:      cfg.Sampler,
		client:       client,
		logger:       cfg.Logger.With("subsystem", "health_aggregator"),
		metrics:      cfg.Metrics,
		onSnapshot:   cfg.OnSnapshot,
		checkTimeout: cfg.CheckTimeout,
	}
}

// CheckService performs one bounded-timeout GET probe.
//
// # Description
//
// Maps the HTTP outcome onto a status: 200 is healthy; other sub-400
// statuses are degraded with a note; 400+ is unhealthy with the status
// text. Timeouts and connection failures are unhealthy; anything else
// that goes wrong inside the check machinery is unknown. Check outcomes
// are never returned as Go errors.
//
// # Inputs
//
//   - ctx: Parent context; the per-check timeout is layered on top.
//   - check: The service check to run.
//
// # Outputs
//
//   - ServiceHealth: The check result with unique ID and timing.
func (a *Aggregator) CheckService(ctx context.Context, check ServiceCheck) ServiceHealth {
	start := time.Now()
	result := ServiceHealth{
		ID:   newID(),
		Name: check.Name,
		URL:  check.URL,
	}

	timeout := check.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if a.checkTimeout != nil {
		if adjusted := a.checkTimeout(check.Name, timeout); adjusted > 0 {
			timeout = adjusted
		}
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, check.URL, nil)
	if err != nil {
		result.Status = StatusUnknown
		result.Error = fmt.Sprintf("build request: %v", err)
		return a.finishCheck(ctx, result, start)
	}
	for k, v := range check.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		result.Status, result.Error = classifyProbeError(err)
		return a.finishCheck(ctx, result, start)
	}
	defer resp.Body.Close()

	result.Metadata = map[string]any{"status_code": resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusOK:
		result.Status = StatusHealthy
	case resp.StatusCode < 400:
		result.Status = StatusDegraded
		result.Error = fmt.Sprintf("non-200 success status: %d", resp.StatusCode)
	default:
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return a.finishCheck(ctx, result, start)
}

// finishCheck stamps timing and records instrumentation.
func (a *Aggregator) finishCheck(ctx context.Context, result ServiceHealth, start time.Time) ServiceHealth {
	elapsed := time.Since(start)
	result.ResponseTimeMS = float64(elapsed) / float64(time.Millisecond)
	result.LastChecked = time.Now()

	if a.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("check", result.Name),
			attribute.String("status", string(result.Status)),
		)
		a.metrics.HealthChecksTotal.Add(ctx, 1, attrs)
		a.metrics.HealthCheckDuration.Record(ctx, elapsed.Seconds(), attrs)
	}

	return result
}

// classifyProbeError maps a probe transport failure onto a status.
func classifyProbeError(err error) (Status, string) {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return StatusUnhealthy, "request timeout"
	}

	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.As(err, &urlErr) {
		return StatusUnhealthy, fmt.Sprintf("connection error: %v", err)
	}

	return StatusUnknown, fmt.Sprintf("unexpected check failure: %v", err)
}

// CheckSystemResources samples CPU, memory, and disk usage.
//
// Per-metric thresholds: CPU above 90% is unhealthy, above 70% degraded;
// memory above 95% / 80%; disk above 95% / 85%. When every sample fails,
// a single unknown entry is emitted instead of failing the cycle.
func (a *Aggregator) CheckSystemResources(ctx context.Context) []ServiceHealth {
	if a.sampler == nil {
		return nil
	}

	type metricSpec struct {
		name      string
		sample    func(context.Context) (float64, error)
		degraded  float64
		unhealthy float64
	}
	specs := []metricSpec{
		{"cpu", a.sampler.CPUPercent, cpuDegradedPct, cpuUnhealthyPct},
		{"memory", a.sampler.MemoryPercent, memDegradedPct, memUnhealthyPct},
		{"disk", a.sampler.DiskPercent, diskDegradedPct, diskUnhealthyPct},
	}

	results := make([]ServiceHealth, 0, len(specs))
	failed := 0
	for _, spec := range specs {
		start := time.Now()
		entry := ServiceHealth{ID: newID(), Name: spec.name}

		pct, err := spec.sample(ctx)
		if err != nil {
			failed++
			entry.Status = StatusUnknown
			entry.Error = err.Error()
		} else {
			entry.Status = resourceStatus(pct, spec.degraded, spec.unhealthy)
			entry.Metadata = map[string]any{"used_percent": pct}
			if entry.Status != StatusHealthy {
				entry.Error = fmt.Sprintf("%s usage at %.1f%%", spec.name, pct)
			}
		}
		results = append(results, a.finishCheck(ctx, entry, start))
	}

	if failed == len(specs) {
		// Sampling facility is unavailable; collapse to one entry.
		single := ServiceHealth{
			ID:          newID(),
			Name:        "system_resources",
			Status:      StatusUnknown,
			Error:       "resource sampling unavailable",
			LastChecked: time.Now(),
		}
		return []ServiceHealth{single}
	}

	return results
}

// AggregateHealth runs every configured check concurrently and derives
// the overall status.
//
// # Description
//
// Service checks fan out concurrently; results keep roster order, with
// resource checks appended last. Overall status precedence: any unhealthy
// result wins, then any degraded, then unknown when nothing at all is
// healthy, else healthy. The snapshot is cached as the last check.
//
// # Outputs
//
//   - *AggregatedHealth: The cycle snapshot. Never nil; never an error.
func (a *Aggregator) AggregateHealth(ctx context.Context) *AggregatedHealth {
	start := time.Now()

	serviceResults := make([]ServiceHealth, len(a.checks))
	var g errgroup.Group
	for i, check := range a.checks {
		g.Go(func() error {
			serviceResults[i] = a.CheckService(ctx, check)
			return nil
		})
	}
	// Checks report outcomes in their result, never as errors.
	_ = g.Wait()

	services := append(serviceResults, a.CheckSystemResources(ctx)...)

	counts := map[Status]int{
		StatusHealthy:   0,
		StatusDegraded:  0,
		StatusUnhealthy: 0,
		StatusUnknown:   0,
	}
	for _, s := range services {
		counts[s.Status]++
	}

	snapshot := &AggregatedHealth{
		ID:            newID(),
		Overall:       overallStatus(counts),
		Services:      services,
		Counts:        counts,
		TotalServices: len(services),
		CheckedAt:     start,
		DurationMS:    float64(time.Since(start)) / float64(time.Millisecond),
	}

	a.mu.Lock()
	a.lastCheck = snapshot
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.AggregationsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("overall", string(snapshot.Overall)),
		))
	}

	return snapshot
}

// overallStatus derives the aggregate status by precedence.
func overallStatus(counts map[Status]int) Status {
	switch {
	case counts[StatusUnhealthy] > 0:
		return StatusUnhealthy
	case counts[StatusDegraded] > 0:
		return StatusDegraded
	case counts[StatusUnknown] > 0 && counts[StatusHealthy] == 0:
		return StatusUnknown
	default:
		return StatusHealthy
	}
}

// LastCheck returns the most recent snapshot, or nil before the first
// aggregation cycle.
func (a *Aggregator) LastCheck() *AggregatedHealth {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCheck
}

// StartMonitoring begins a cooperative background loop that aggregates
// every interval.
//
// The loop never dies on its own: per-cycle problems are logged and the
// next cycle proceeds. Returns ErrMonitorRunning if already started.
func (a *Aggregator) StartMonitoring(interval time.Duration) error {
	a.loopMu.Lock()
	defer a.loopMu.Unlock()

	if a.loopStop != nil {
		return ErrMonitorRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.loopStop = cancel
	a.loopDone = done

	a.logger.Info("background monitoring started", "interval", interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			a.runCycle(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// runCycle executes one aggregation, containing any panic so the loop
// survives misbehaving checks.
func (a *Aggregator) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("monitoring cycle panicked", "panic", r)
		}
	}()

	snapshot := a.AggregateHealth(ctx)
	a.logger.Debug("monitoring cycle complete",
		"overall", snapshot.Overall,
		"services", snapshot.TotalServices,
		"duration_ms", snapshot.DurationMS)

	if a.onSnapshot != nil {
		a.onSnapshot(snapshot)
	}
}

// StopMonitoring cancels the background loop and waits for it to exit.
// Safe to call when monitoring is not running.
func (a *Aggregator) StopMonitoring() {
	a.loopMu.Lock()
	stop := a.loopStop
	done := a.loopDone
	a.loopStop = nil
	a.loopDone = nil
	a.loopMu.Unlock()

	if stop == nil {
		return
	}

	stop()
	<-done
	a.logger.Info("background monitoring stopped")
}
