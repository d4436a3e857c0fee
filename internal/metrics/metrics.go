// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics exposes spicetrace's Prometheus metrics and, when
// configured, mirrors the same counters to InfluxDB for long-term storage
// outside the Prometheus scrape window.
package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ingestFilesTotal counts files ingested by outcome (ok, error).
	ingestFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spicetrace",
		Subsystem: "extract",
		Name:      "files_total",
		Help:      "Total netlist files extracted, by outcome",
	}, []string{"outcome"})

	// ingestRecordsTotal counts records persisted by kind (model, subckt).
	ingestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spicetrace",
		Subsystem: "extract",
		Name:      "records_total",
		Help:      "Total records persisted by kind",
	}, []string{"kind"})

	// queryLatencySeconds measures query engine latency by query kind.
	queryLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spicetrace",
		Subsystem: "query",
		Name:      "latency_seconds",
		Help:      "Query engine latency by query kind",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"kind"})

	// queryResultsTotal counts results returned by query kind.
	queryResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spicetrace",
		Subsystem: "query",
		Name:      "results_total",
		Help:      "Total results returned by query kind",
	}, []string{"kind"})
)

// Sink optionally mirrors metrics to an external system (InfluxDB). A nil
// Sink makes a Recorder skip the InfluxDB mirroring; its Prometheus
// collectors are still updated.
type Sink interface {
	WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]any) error
}

// Recorder records spicetrace's metrics to Prometheus and, if configured,
// mirrors them to an InfluxDB sink.
//
// Thread Safety: Safe for concurrent use; Prometheus collectors and the
// Influx client are both safe for concurrent use.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
}

// New constructs a Recorder. sink may be nil to disable InfluxDB
// mirroring; logger may be nil.
func New(sink Sink, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger}
}

// RecordFileExtracted records one file extraction outcome.
func (r *Recorder) RecordFileExtracted(ctx context.Context, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	ingestFilesTotal.WithLabelValues(outcome).Inc()
	r.mirror(ctx, "extract_files", map[string]string{"outcome": outcome}, map[string]any{"count": 1})
}

// RecordRecordsPersisted adds count model/subckt rows of the given kind to
// the persisted total; callers may report one file or a whole run at once.
func (r *Recorder) RecordRecordsPersisted(ctx context.Context, kind string, count int) {
	if count == 0 {
		return
	}
	ingestRecordsTotal.WithLabelValues(kind).Add(float64(count))
	r.mirror(ctx, "extract_records", map[string]string{"kind": kind}, map[string]any{"count": count})
}

// RecordQuery records one query engine invocation's latency and result
// count.
func (r *Recorder) RecordQuery(ctx context.Context, kind string, seconds float64, resultCount int) {
	queryLatencySeconds.WithLabelValues(kind).Observe(seconds)
	queryResultsTotal.WithLabelValues(kind).Add(float64(resultCount))
	r.mirror(ctx, "query", map[string]string{"kind": kind}, map[string]any{
		"latency_seconds": seconds,
		"result_count":    resultCount,
	})
}

func (r *Recorder) mirror(ctx context.Context, measurement string, tags map[string]string, fields map[string]any) {
	if r == nil || r.sink == nil {
		return
	}
	if err := r.sink.WritePoint(ctx, measurement, tags, fields); err != nil {
		r.logger.Warn("metrics: influx mirror failed", slog.String("measurement", measurement), slog.Any("error", err))
	}
}
