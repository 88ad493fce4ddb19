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
	"os"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/config"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/degradation"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/health"
)

// newLogger builds the process logger from the config logging section.
func newLogger(cfg *config.Config) *logging.Logger {
	level := logging.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: "resilience",
		JSON:    cfg.Logging.JSON,
		Output:  os.Stderr,
	})
}

// statusesFromSnapshot converts a health snapshot into component
// statuses for degradation evaluation.
//
// Degraded services stay nominally healthy but carry a synthetic error
// rate so a fleet of degraded services still pulls the aggregate score
// down. Unknown is treated as unhealthy: an unreachable verdict must
// not prop the score up.
func statusesFromSnapshot(snapshot *health.AggregatedHealth) map[string]degradation.ComponentStatus {
	statuses := make(map[string]degradation.ComponentStatus, len(snapshot.Services))
	for _, svc := range snapshot.Services {
		status := degradation.ComponentStatus{
			AvgResponseTime: float64(svc.ResponseTimeMS) / 1000.0,
		}
		switch svc.Status {
		case health.StatusHealthy:
			status.Healthy = true
		case health.StatusDegraded:
			status.Healthy = true
			status.ErrorRate = 0.25
		default:
			status.Healthy = false
		}
		statuses[svc.Name] = status
	}
	return statuses
}
