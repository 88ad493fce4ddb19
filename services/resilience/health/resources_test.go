// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
)

// fakeSampler returns fixed usage percentages or errors.
type fakeSampler struct {
	cpu, mem, disk float64
	cpuErr, memErr error
	diskErr        error
}

func (f *fakeSampler) CPUPercent(ctx context.Context) (float64, error)    { return f.cpu, f.cpuErr }
func (f *fakeSampler) MemoryPercent(ctx context.Context) (float64, error) { return f.mem, f.memErr }
func (f *fakeSampler) DiskPercent(ctx context.Context) (float64, error)   { return f.disk, f.diskErr }

func resourceAggregator(s ResourceSampler) *Aggregator {
	return NewAggregator(Config{Sampler: s, Logger: logging.Discard()})
}

func TestCheckSystemResources_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		sampler  fakeSampler
		wantCPU  Status
		wantMem  Status
		wantDisk Status
	}{
		{
			name:     "all nominal",
			sampler:  fakeSampler{cpu: 10, mem: 40, disk: 50},
			wantCPU:  StatusHealthy,
			wantMem:  StatusHealthy,
			wantDisk: StatusHealthy,
		},
		{
			name:     "all degraded",
			sampler:  fakeSampler{cpu: 75, mem: 85, disk: 90},
			wantCPU:  StatusDegraded,
			wantMem:  StatusDegraded,
			wantDisk: StatusDegraded,
		},
		{
			name:     "all critical",
			sampler:  fakeSampler{cpu: 95, mem: 97, disk: 99},
			wantCPU:  StatusUnhealthy,
			wantMem:  StatusUnhealthy,
			wantDisk: StatusUnhealthy,
		},
		{
			name:     "boundaries are exclusive",
			sampler:  fakeSampler{cpu: 90, mem: 95, disk: 95},
			wantCPU:  StatusDegraded,
			wantMem:  StatusDegraded,
			wantDisk: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := resourceAggregator(&tt.sampler)
			results := a.CheckSystemResources(context.Background())

			if len(results) != 3 {
				t.Fatalf("got %d results, want 3", len(results))
			}
			byName := map[string]ServiceHealth{}
			for _, r := range results {
				byName[r.Name] = r
			}

			if byName["cpu"].Status != tt.wantCPU {
				t.Errorf("cpu = %s, want %s", byName["cpu"].Status, tt.wantCPU)
			}
			if byName["memory"].Status != tt.wantMem {
				t.Errorf("memory = %s, want %s", byName["memory"].Status, tt.wantMem)
			}
			if byName["disk"].Status != tt.wantDisk {
				t.Errorf("disk = %s, want %s", byName["disk"].Status, tt.wantDisk)
			}
		})
	}
}

func TestCheckSystemResources_PartialFailure(t *testing.T) {
	sampler := &fakeSampler{cpu: 50, mem: 50, diskErr: errors.New("no such mount")}
	a := resourceAggregator(sampler)

	results := a.CheckSystemResources(context.Background())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	var disk ServiceHealth
	for _, r := range results {
		if r.Name == "disk" {
			disk = r
		}
	}
	if disk.Status != StatusUnknown {
		t.Errorf("disk = %s, want unknown", disk.Status)
	}
}

func TestCheckSystemResources_SamplerUnavailable(t *testing.T) {
	err := errors.New("sampling facility unavailable")
	sampler := &fakeSampler{cpuErr: err, memErr: err, diskErr: err}
	a := resourceAggregator(sampler)

	results := a.CheckSystemResources(context.Background())
	if len(results) != 1 {
		t.Fatalf("got %d results, want a single unknown entry", len(results))
	}
	if results[0].Status != StatusUnknown {
		t.Errorf("Status = %s, want unknown", results[0].Status)
	}
	if results[0].Name != "system_resources" {
		t.Errorf("Name = %s, want system_resources", results[0].Name)
	}
}

func TestCheckSystemResources_NoSampler(t *testing.T) {
	a := resourceAggregator(nil)
	if results := a.CheckSystemResources(context.Background()); results != nil {
		t.Errorf("results = %v, want nil without a sampler", results)
	}
}

func TestResourceStatus(t *testing.T) {
	tests := []struct {
		pct  float64
		want Status
	}{
		{50, StatusHealthy},
		{70, StatusHealthy},
		{70.1, StatusDegraded},
		{90, StatusDegraded},
		{90.1, StatusUnhealthy},
		{100, StatusUnhealthy},
	}

	for _, tt := range tests {
		if got := resourceStatus(tt.pct, cpuDegradedPct, cpuUnhealthyPct); got != tt.want {
			t.Errorf("resourceStatus(%.1f) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}
