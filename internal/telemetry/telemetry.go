// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the global OTel tracer and meter providers
// spicetrace-mcpd runs under. internal/extract's span and otelgin's
// middleware are no-ops until a provider is installed; this is the one
// place that installs one.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown flushes and stops the providers installed by Setup.
type Shutdown func(context.Context) error

// Setup installs a global TracerProvider and MeterProvider for
// serviceName. Spans export via OTLP/gRPC when OTEL_EXPORTER_OTLP_ENDPOINT
// is set, otherwise to stdout, matching the teacher's agent/providers test
// doubles (tracetest.NewSpanRecorder) only in spirit: here the exporter is
// real, since spicetrace-mcpd is a long-running daemon rather than a
// library call.
//
// Metrics are exported through registerer, the same Prometheus registry
// /metrics already serves, so OTel-instrumented counters appear on the
// daemon's existing scrape endpoint rather than a second one.
func Setup(ctx context.Context, serviceName string, registerer prometheus.Registerer) (Shutdown, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	traceExp, err := newTraceExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("building trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("building prometheus metric exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(metricExp),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(shutdownCtx context.Context) error {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return mp.Shutdown(shutdownCtx)
	}, nil
}

// newTraceExporter picks OTLP/gRPC when a collector endpoint is
// configured, falling back to a stdout exporter so tracing works out of
// the box in local/dev runs without needing a collector.
func newTraceExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	}
	return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
}
