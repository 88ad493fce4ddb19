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
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	configPath string // --config: YAML file overriding the compiled-in defaults
	jsonOutput bool   // --json: machine-readable output

	rootCmd = &cobra.Command{
		Use:   "resilience",
		Short: "Health-driven graceful degradation for the Aleutian stack",
		Long: `resilience watches service and host health, derives a degradation
level from the aggregate score, and exposes feature gating, adaptive
timeouts, and fallback execution to the rest of the stack.`,
		SilenceUsage: true,
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Run one health aggregation cycle and print the snapshot",
		RunE:  runCheckCommand, // Defined in cmd_check.go
	}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Continuously monitor health and manage the degradation level",
		Long: `Runs the background monitoring loop: every interval the service
roster and host resources are checked, the degradation level is
re-evaluated, and per-target circuit breakers are updated. Prometheus
metrics are served on the metrics address until interrupted.`,
		RunE: runMonitorCommand, // Defined in cmd_monitor.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the resilience build version",
		Run: func(cmd *cobra.Command, args []string) {
			version := "devel"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				version = info.Main.Version
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (default: compiled-in configuration)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Emit JSON instead of human-readable output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(versionCmd)
}
