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
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/aleutian-resilience/services/resilience/config"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/degradation"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/health"
)

// checkReport is the one-shot output: the raw snapshot plus the
// degradation verdict it implies.
type checkReport struct {
	Snapshot    *health.AggregatedHealth `json:"snapshot"`
	Degradation degradation.Status       `json:"degradation"`
}

// runCheckCommand performs a single aggregation cycle and prints the
// snapshot with the degradation level it implies. Exit status is
// non-zero when the overall status is unhealthy so scripts can gate on
// it.
func runCheckCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	aggregator := health.NewAggregator(health.Config{
		Checks:  cfg.HealthChecks(),
		Sampler: health.NewSystemSampler(),
		Logger:  logger,
	})
	policies, err := cfg.DegradationPolicies()
	if err != nil {
		return err
	}
	manager, err := degradation.NewManager(degradation.Config{
		Policies: policies,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	snapshot := aggregator.AggregateHealth(ctx)
	manager.EvaluateSystemHealth(statusesFromSnapshot(snapshot))

	report := checkReport{Snapshot: snapshot, Degradation: manager.Status()}
	if jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	} else {
		printReport(cmd, report)
	}

	if snapshot.Overall == health.StatusUnhealthy {
		return fmt.Errorf("overall status: %s", snapshot.Overall)
	}
	return nil
}

func printReport(cmd *cobra.Command, report checkReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Overall: %s (level %s, score %.3f)\n",
		report.Snapshot.Overall, report.Degradation.Level, report.Degradation.AggregateScore)
	for _, svc := range report.Snapshot.Services {
		line := fmt.Sprintf("  %-24s %-10s %7.1fms", svc.Name, svc.Status, svc.ResponseTimeMS)
		if svc.Error != "" {
			line += "  " + svc.Error
		}
		fmt.Fprintln(out, line)
	}
	if len(report.Degradation.DisabledFeatures) > 0 {
		fmt.Fprintf(out, "Disabled features: %v\n", report.Degradation.DisabledFeatures)
	}
}
