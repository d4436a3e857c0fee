// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxSink implements Sink over an InfluxDB v2 client, using its
// synchronous (blocking) write API so a caller learns about a write
// failure immediately rather than discovering it later in an async error
// channel.
type InfluxSink struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

// NewInfluxSink connects to an InfluxDB v2 server at url using token,
// writing points into org/bucket.
func NewInfluxSink(url, token, org, bucket string) (*InfluxSink, error) {
	client := influxdb2.NewClient(url, token)
	writer := client.WriteAPIBlocking(org, bucket)
	return &InfluxSink{client: client, writer: writer}, nil
}

// Close releases the underlying InfluxDB client's resources.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// WritePoint writes a single point to InfluxDB, satisfying metrics.Sink.
func (s *InfluxSink) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]any) error {
	point := influxdb2.NewPoint(measurement, tags, fields, time.Now())
	if err := s.writer.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("writing influx point %s: %w", measurement, err)
	}
	return nil
}
