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
	"testing"

	"github.com/AleutianAI/aleutian-resilience/services/resilience/health"
)

func TestStatusesFromSnapshot(t *testing.T) {
	snapshot := &health.AggregatedHealth{
		Services: []health.ServiceHealth{
			{Name: "api", Status: health.StatusHealthy, ResponseTimeMS: 500},
			{Name: "cache", Status: health.StatusDegraded, ResponseTimeMS: 1200},
			{Name: "db", Status: health.StatusUnhealthy},
			{Name: "queue", Status: health.StatusUnknown},
		},
	}

	statuses := statusesFromSnapshot(snapshot)
	if len(statuses) != 4 {
		t.Fatalf("got %d statuses, want 4", len(statuses))
	}

	api := statuses["api"]
	if !api.Healthy || api.ErrorRate != 0 || api.AvgResponseTime != 0.5 {
		t.Errorf("api status = %+v, want healthy with 0.5s latency", api)
	}

	cache := statuses["cache"]
	if !cache.Healthy || cache.ErrorRate != 0.25 {
		t.Errorf("cache status = %+v, want healthy with synthetic error rate", cache)
	}

	if statuses["db"].Healthy {
		t.Error("unhealthy service mapped to a healthy status")
	}
	if statuses["queue"].Healthy {
		t.Error("unknown service mapped to a healthy status")
	}
}
