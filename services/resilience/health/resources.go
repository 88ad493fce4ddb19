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
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Resource usage thresholds. Usage above the unhealthy bound reports
// unhealthy, above the degraded bound reports degraded, else healthy.
const (
	cpuDegradedPct  = 70.0
	cpuUnhealthyPct = 90.0

	memDegradedPct  = 80.0
	memUnhealthyPct = 95.0

	diskDegradedPct  = 85.0
	diskUnhealthyPct = 95.0
)

// ResourceSampler samples host resource usage percentages.
//
// The production implementation uses gopsutil; tests inject a fake to
// exercise threshold mapping and sampler failure without touching the
// host.
type ResourceSampler interface {
	// CPUPercent returns total CPU utilization in [0, 100].
	CPUPercent(ctx context.Context) (float64, error)

	// MemoryPercent returns virtual memory utilization in [0, 100].
	MemoryPercent(ctx context.Context) (float64, error)

	// DiskPercent returns root filesystem usage in [0, 100].
	DiskPercent(ctx context.Context) (float64, error)
}

// SystemSampler samples the local host via gopsutil.
type SystemSampler struct {
	// Path is the filesystem path for disk usage. Default: "/".
	Path string
}

// NewSystemSampler returns a sampler reading the local host.
func NewSystemSampler() *SystemSampler {
	return &SystemSampler{Path: "/"}
}

// CPUPercent returns total CPU utilization since the previous call.
func (s *SystemSampler) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("sample cpu: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("sample cpu: no data")
	}
	return percents[0], nil
}

// MemoryPercent returns virtual memory utilization.
func (s *SystemSampler) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("sample memory: %w", err)
	}
	return vm.UsedPercent, nil
}

// DiskPercent returns filesystem usage for the configured path.
func (s *SystemSampler) DiskPercent(ctx context.Context) (float64, error) {
	path := s.Path
	if path == "" {
		path = "/"
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("sample disk: %w", err)
	}
	return usage.UsedPercent, nil
}

// resourceStatus maps a usage percentage onto a status given thresholds.
func resourceStatus(pct, degraded, unhealthy float64) Status {
	switch {
	case pct > unhealthy:
		return StatusUnhealthy
	case pct > degraded:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
