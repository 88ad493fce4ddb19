// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Provider bundles the configured metric pipeline.
type Provider struct {
	// Metrics is the resilience instrument bundle.
	Metrics *Metrics

	// Handler serves the Prometheus scrape endpoint.
	Handler http.Handler

	shutdown func(context.Context) error
}

// Init sets up the metrics-only OpenTelemetry pipeline with a
// Prometheus exporter.
//
// The OTel exporter registers with the default Prometheus registry, so
// the returned handler also exposes the Go runtime collectors that
// client_golang installs there.
//
// Inputs:
//   - serviceName: Reported as the service.name resource attribute.
//   - serviceVersion: Reported as the service.version resource attribute.
//
// Outputs:
//   - *Provider: Instruments plus the scrape handler.
//   - error: Exporter or instrument creation failure.
//
// Thread Safety: Call once at application startup.
func Init(serviceName, serviceVersion string) (*Provider, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics(mp.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}

	return &Provider{
		Metrics:  metrics,
		Handler:  promhttp.Handler(),
		shutdown: mp.Shutdown,
	}, nil
}

// Shutdown flushes and stops the metric pipeline. Must be called on
// application exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
