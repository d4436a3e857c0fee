// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract wires the lexer, parser, and store together into the
// extractor's driver: read a file, normalize it, parse it, stream the
// results into an indexer.
//
// Description:
//
//	One lexer/parser pair is constructed per file and discarded when
//	extraction of that file completes (spec.md §5's resource discipline).
//	Files are processed strictly sequentially; the driver makes no
//	concurrency assumption about, and performs no de-duplication across,
//	the files it is given.
//
// Thread Safety:
//
//	A Driver holds no mutable state of its own; concurrent ExtractFile
//	calls on one Driver are safe exactly when its Indexer is safe for
//	concurrent use (store.Store is).
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aleutian-labs/spicetrace/internal/spice/lexer"
	"github.com/aleutian-labs/spicetrace/internal/spice/parser"
)

var tracer = otel.Tracer("github.com/aleutian-labs/spicetrace/internal/extract")

// Driver reads SPICE netlist files and streams their extracted records into
// an Indexer.
type Driver struct {
	Indexer parser.Indexer

	// Logger receives one Warn record per anomaly (skipped model, skipped
	// nested subcircuit, unexpected .ends, malformed directive, parameter
	// parse failure). Nil suppresses anomaly logging entirely, matching
	// spec.md §6's "log_path absent" behavior.
	Logger *slog.Logger
}

// New constructs a Driver over indexer. logger may be nil.
func New(indexer parser.Indexer, logger *slog.Logger) *Driver {
	return &Driver{Indexer: indexer, Logger: logger}
}

// OpenLogSink opens (creating and appending to) the anomaly log file at
// logPath, returning a slog.Logger writing one line per record and a close
// function. If logPath is empty, it returns a nil logger (anomalies are
// dropped) and a no-op close, matching the extractor's single recognized
// "log_path" configuration option.
func OpenLogSink(logPath string) (*slog.Logger, func() error, error) {
	if logPath == "" {
		return nil, func() error { return nil }, nil
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log sink %s: %w", logPath, err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelWarn})
	return slog.New(handler), f.Close, nil
}

// ExtractFile reads path, normalizes line endings and case, and parses it,
// streaming every completed ModelRecord/SubcircuitRecord into d.Indexer. A
// partially-extracted file (one that fails mid-stream on a store error)
// yields every complete directive parsed before the failure point, per
// spec.md §5's cancellation/resource discipline.
func (d *Driver) ExtractFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return d.ExtractReader(ctx, f, path)
}

// ExtractReader is ExtractFile's underlying implementation, taking an
// already-open reader so callers (e.g. the source package's gs:// and
// fsnotify-watch paths) don't need a local *os.File.
func (d *Driver) ExtractReader(ctx context.Context, r io.Reader, name string) error {
	ctx, span := tracer.Start(ctx, "extract.ExtractFile",
		trace.WithAttributes(attribute.String("spice.file", name)),
	)
	defer span.End()

	raw, err := io.ReadAll(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("reading %s: %w", name, err)
	}

	origLines, lower := normalize(raw)

	lex := lexer.New(lower, name)
	p := parser.New(lex, name, origLines, d.Indexer, d.Logger)

	if err := p.Parse(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// ExtractFiles processes paths strictly in order, stopping at the first
// file-level fatal error (I/O or store-write failure). It is the
// extractor's default single-threaded driving mode; internal/source.WatchDir,
// used by "--watch" ingestion, likewise calls ExtractFile one file at a time.
func (d *Driver) ExtractFiles(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := d.ExtractFile(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// normalize strips carriage returns and splits the result into the
// original-case lines (used to recover SubcircuitRecord.Content's casing)
// alongside the fully lowercased byte buffer the lexer consumes. Lowercasing
// the whole file is how the extractor achieves case-insensitive matching of
// identifiers, model types, parameter names, patterns, and SI suffixes
// (spec.md §3's invariant); per spec.md §9's design note this would
// otherwise destroy case in the captured subcircuit body, hence the
// parallel un-normalized line slice.
func normalize(raw []byte) (origLines []string, lower []byte) {
	stripped := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	stripped = bytes.ReplaceAll(stripped, []byte("\r"), []byte("\n"))
	origLines = strings.Split(string(stripped), "\n")
	lower = bytes.ToLower(stripped)
	return origLines, lower
}

