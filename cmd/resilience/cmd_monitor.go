// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/circuit"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/config"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/degradation"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/health"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/telemetry"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/timeout"
)

var metricsAddr string // --metrics-addr: Prometheus scrape endpoint

func init() {
	monitorCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090",
		"Listen address for the Prometheus /metrics endpoint")
}

// runMonitorCommand runs the monitoring loop until SIGINT or SIGTERM.
func runMonitorCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	provider, err := telemetry.Init("resilience", "1.0.0")
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	breakers := circuit.NewRegistry(circuit.Config{
		FailureThreshold: cfg.Circuit.FailureThreshold,
		SuccessThreshold: cfg.Circuit.SuccessThreshold,
		OpenDuration:     cfg.Circuit.OpenDuration.Std(),
		HalfOpenMax:      1,
	})

	// Probe deadlines start at the configured check timeout and adapt to
	// observed latency once enough samples accumulate.
	probeTimeouts := timeout.NewManager(timeout.Config{
		BaseTimeout:    cfg.Health.CheckTimeout.Std(),
		MaxHistorySize: cfg.Timeout.MaxHistorySize,
	})

	policies, err := cfg.DegradationPolicies()
	if err != nil {
		return err
	}
	manager, err := degradation.NewManager(degradation.Config{
		Policies: policies,
		Logger:   logger,
		Metrics:  provider.Metrics,
		OnTransition: func(from, to degradation.Level, score float64) {
			logger.Warn("degradation transition",
				"from", from, "to", to, "aggregate_score", score)
		},
	})
	if err != nil {
		return err
	}

	aggregator := health.NewAggregator(health.Config{
		Checks:  cfg.HealthChecks(),
		Sampler: health.NewSystemSampler(),
		Logger:  logger,
		Metrics: provider.Metrics,
		OnSnapshot: func(snapshot *health.AggregatedHealth) {
			evaluateCycle(logger, provider, breakers, manager, probeTimeouts, snapshot)
		},
		CheckTimeout: func(name string, _ time.Duration) time.Duration {
			return probeTimeouts.Timeout(name, manager.TimeoutMultiplier())
		},
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", provider.Handler)
	server := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics endpoint listening", "addr", metricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	if err := aggregator.StartMonitoring(cfg.Monitor.Interval.Std()); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	aggregator.StopMonitoring()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// evaluateCycle folds one health snapshot into the circuit breakers and
// re-evaluates the degradation level.
//
// Probe outcomes drive each service's breaker so a flapping upstream
// opens its circuit; an open circuit pins the component unhealthy until
// the breaker re-closes, even if a lucky probe succeeds meanwhile.
func evaluateCycle(
	logger *logging.Logger,
	provider *telemetry.Provider,
	breakers *circuit.Registry,
	manager *degradation.Manager,
	probeTimeouts *timeout.Manager,
	snapshot *health.AggregatedHealth,
) {
	statuses := statusesFromSnapshot(snapshot)

	for _, svc := range snapshot.Services {
		// Resource entries carry no URL; breakers and probe timeouts
		// only make sense for remote checks.
		if svc.URL == "" {
			continue
		}

		elapsed := time.Duration(svc.ResponseTimeMS * float64(time.Millisecond))
		probeTimeouts.Record(svc.Name, elapsed, svc.Status != health.StatusUnhealthy)

		breaker := breakers.For(svc.Name)

		allowed, release := breaker.Allow()
		if release != nil {
			release()
		}
		if allowed {
			if svc.Status == health.StatusUnhealthy {
				breaker.RecordFailure()
			} else {
				breaker.RecordSuccess()
			}
		}

		if breaker.State() == circuit.StateOpen {
			statuses[svc.Name] = degradation.ComponentStatus{Healthy: false}
		}

		ctx := context.Background()
		provider.Metrics.CircuitState.Record(ctx, int64(breaker.State()),
			metric.WithAttributes(attribute.String("target", svc.Name)))
	}

	level := manager.EvaluateSystemHealth(statuses)
	logger.Debug("cycle evaluated",
		"overall", snapshot.Overall,
		"level", level)
}
