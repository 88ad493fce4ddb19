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
	"time"

	"github.com/google/uuid"
)

// Status represents the health state of a checked service.
//
// States are mutually exclusive and represent a point-in-time snapshot.
// JSON serialization emits the lowercase string name.
type Status string

const (
	// StatusHealthy indicates the service is responding normally.
	StatusHealthy Status = "healthy"

	// StatusDegraded indicates the service responds but not cleanly
	// (redirect or non-200 success status, elevated resource usage).
	StatusDegraded Status = "degraded"

	// StatusUnhealthy indicates the service failed its check
	// (error status, timeout, or connection failure).
	StatusUnhealthy Status = "unhealthy"

	// StatusUnknown indicates the check itself could not determine
	// health (unexpected failure of the check machinery).
	StatusUnknown Status = "unknown"
)

// ServiceCheck describes a single HTTP health check target.
//
// # Description
//
// Defines the endpoint, timeout, and headers for one bounded-timeout GET
// probe. Checks are configured once at startup; the aggregator runs the
// full roster every cycle.
//
// # Examples
//
//	check := health.ServiceCheck{
//	    Name:    "gateway",
//	    URL:     "http://localhost:8080/healthz",
//	    Timeout: 2 * time.Second,
//	}
//
// # Limitations
//
//   - GET only; no body or method configuration
//   - Headers are sent verbatim; do not place secrets in logs
type ServiceCheck struct {
	// Name is the human-readable service name.
	Name string

	// URL is the health check endpoint.
	URL string

	// Timeout bounds the probe. Zero means DefaultCheckTimeout.
	Timeout time.Duration

	// Headers are added to the probe request.
	Headers map[string]string
}

// DefaultCheckTimeout bounds a probe when ServiceCheck.Timeout is zero.
const DefaultCheckTimeout = 5 * time.Second

// ServiceHealth is the result of one health check.
//
// Results are ephemeral: the aggregator retains only the most recent
// snapshot and nothing is persisted across restarts. The struct is
// JSON-stable: timestamps serialize as ISO-8601 and Status as its string
// name.
type ServiceHealth struct {
	// ID is a unique identifier for this check result.
	ID string `json:"id"`

	// Name is the service or resource name.
	Name string `json:"name"`

	// Status is the observed health state.
	Status Status `json:"status"`

	// URL is the checked endpoint (empty for resource checks).
	URL string `json:"url,omitempty"`

	// ResponseTimeMS is how long the check took, in milliseconds.
	ResponseTimeMS float64 `json:"response_time_ms"`

	// LastChecked is when the check completed.
	LastChecked time.Time `json:"last_checked"`

	// Error carries the failure description for non-healthy results.
	Error string `json:"error,omitempty"`

	// Metadata carries free-form check details (status code, usage
	// percentages).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AggregatedHealth is a point-in-time snapshot across every configured
// check plus host resource checks.
//
// One instance is produced per aggregation cycle; the aggregator keeps
// only the most recent. Services ordering is stable: configured checks in
// roster order, then resource checks.
type AggregatedHealth struct {
	// ID is a unique identifier for this aggregation cycle.
	ID string `json:"id"`

	// Overall is the worst-of status across all services.
	Overall Status `json:"overall_status"`

	// Services holds every individual check result.
	Services []ServiceHealth `json:"services"`

	// Counts tallies results per status.
	Counts map[Status]int `json:"counts"`

	// TotalServices is len(Services).
	TotalServices int `json:"total_services"`

	// CheckedAt is when the cycle started.
	CheckedAt time.Time `json:"checked_at"`

	// DurationMS is the wall-clock duration of the whole cycle in
	// milliseconds.
	DurationMS float64 `json:"duration_ms"`
}

// newID returns a unique identifier for check results and snapshots.
func newID() string {
	return uuid.NewString()
}
