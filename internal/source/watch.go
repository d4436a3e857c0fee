// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Ingester is implemented by internal/extract.Driver; kept narrow here so
// the watch loop doesn't import the extract package directly.
type Ingester interface {
	ExtractFile(ctx context.Context, path string) error
}

// WatchDir watches dir (non-recursively) for netlist file creates and
// writes, re-extracting the file through ingester on each such event, with
// no debouncing. It runs until ctx is cancelled or the watcher's event or
// error channel closes; watcher errors are logged and do not stop it. It is
// the "--watch" ingestion mode's core loop.
//
// Thread Safety: WatchDir is meant to be run from a single goroutine; each
// ExtractFile call it issues happens sequentially, matching
// extract.Driver's own single-writer expectation.
func WatchDir(ctx context.Context, dir string, ingester Ingester, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating directory watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !IsNetlistFile(event.Name) {
				continue
			}
			if err := ingester.ExtractFile(ctx, event.Name); err != nil {
				logger.Warn("watch: extraction failed", slog.String("file", event.Name), slog.Any("error", err))
			} else {
				logger.Info("watch: extracted", slog.String("file", event.Name))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: watcher error", slog.Any("error", err))
		}
	}
}
