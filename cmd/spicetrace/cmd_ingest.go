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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleutian-labs/spicetrace/internal/extract"
	"github.com/aleutian-labs/spicetrace/internal/metrics"
	"github.com/aleutian-labs/spicetrace/internal/source"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
	"github.com/aleutian-labs/spicetrace/internal/spiceconfig"
	"github.com/aleutian-labs/spicetrace/internal/store"
)

var (
	watchDir string
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Extract .model and .subckt directives from netlist files into the store",
		Args:  cobra.MinimumNArgs(0),
		RunE:  runIngestCommand,
	}
	cmd.Flags().StringVar(&watchDir, "watch", "", "continuously re-ingest netlist files as they change in this directory")
	return cmd
}

func runIngestCommand(cmd *cobra.Command, args []string) error {
	cfg, err := spiceconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lock, err := store.LockForWriting(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("acquiring store write lock: %w", err)
	}
	defer lock.Unlock()

	s, err := store.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	logger, closeLog, err := extract.OpenLogSink(cfg.Extractor.LogPath)
	if err != nil {
		return fmt.Errorf("opening anomaly log: %w", err)
	}
	defer closeLog()

	recorder := metrics.New(openInflux(cfg), slog.Default())
	counting := &countingIndexer{Indexer: s}
	driver := extract.New(counting, logger)

	if watchDir != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "watching %s for netlist changes (Ctrl-C to stop)\n", watchDir)
		return source.WatchDir(ctx, watchDir, driver, slog.Default())
	}

	files, err := source.Resolve(ctx, args, os.TempDir())
	if err != nil {
		return fmt.Errorf("resolving input paths: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no netlist files found in %v", args)
	}

	for _, f := range files {
		err := driver.ExtractFile(ctx, f)
		recorder.RecordFileExtracted(ctx, err == nil)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", f, err)
		}
	}
	recorder.RecordRecordsPersisted(ctx, "model", counting.models)
	recorder.RecordRecordsPersisted(ctx, "subckt", counting.subckts)

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("ingested %d file(s)", len(files)))+
		dimStyle.Render(fmt.Sprintf(" into %s", cfg.Store.DSN)))
	return nil
}

// countingIndexer wraps a parser.Indexer to tally records persisted per
// kind, for the ingest command's metrics reporting.
type countingIndexer struct {
	Indexer interface {
		InsertModel(ctx context.Context, rec record.ModelRecord) error
		InsertSubcircuit(ctx context.Context, rec record.SubcircuitRecord) error
	}
	models  int
	subckts int
}

func (c *countingIndexer) InsertModel(ctx context.Context, rec record.ModelRecord) error {
	if err := c.Indexer.InsertModel(ctx, rec); err != nil {
		return err
	}
	c.models++
	return nil
}

func (c *countingIndexer) InsertSubcircuit(ctx context.Context, rec record.SubcircuitRecord) error {
	if err := c.Indexer.InsertSubcircuit(ctx, rec); err != nil {
		return err
	}
	c.subckts++
	return nil
}

// openInflux constructs an optional metrics.Sink from cfg.Influx, logging
// and falling back to Prometheus-only on failure rather than aborting
// ingestion over a metrics sink being unreachable.
func openInflux(cfg *spiceconfig.Config) metrics.Sink {
	if !cfg.Influx.Enabled {
		return nil
	}
	sink, err := metrics.NewInfluxSink(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
	if err != nil {
		slog.Warn("influx metrics sink unavailable, continuing with prometheus only", slog.String("error", err.Error()))
		return nil
	}
	return sink
}
