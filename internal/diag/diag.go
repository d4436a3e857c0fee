// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diag implements spicetrace's "diff-subckt" diagnostic: a
// structured diff between two stored subcircuit bodies (e.g. across two
// ingests, or across two source files claiming the same subcircuit name).
//
// # Description
//
// Computing the diff itself is delegated to the system "diff" binary,
// invoked exactly as cmd/aleutian invokes "git" for its own test fixtures;
// the unified-diff output is then parsed into structured hunks via
// sourcegraph/go-diff rather than returned as raw text, so a caller (CLI
// or MCP tool) can report line-level additions/removals without
// re-parsing unified diff syntax itself.
//
// # Thread Safety
//
// DiffSubcircuits is safe for concurrent use; it holds no shared state.
package diag

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// HunkSummary is one parsed unified-diff hunk, reduced to the fields a
// caller needs to report a change's location and size.
type HunkSummary struct {
	OrigStartLine int32
	OrigLines     int32
	NewStartLine  int32
	NewLines      int32
	Body          string
}

// DiffSubcircuits diffs two subcircuit bodies (as captured in
// record.SubcircuitRecord.Content) and returns the parsed hunks. Identical
// content returns a nil, non-error result.
func DiffSubcircuits(ctx context.Context, name, oldContent, newContent string) ([]HunkSummary, error) {
	if oldContent == newContent {
		return nil, nil
	}

	oldPath, newPath, cleanup, err := writeTempPair(name, oldContent, newContent)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, "diff", "-u", oldPath, newPath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// "diff" exits 1 when inputs differ; that is the expected case here,
	// not a failure, so only a higher exit status or a non-exec error is
	// treated as one.
	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); !ok || exitErr.ExitCode() > 1 {
			return nil, fmt.Errorf("running diff for subcircuit %q: %w", name, runErr)
		}
	}

	// "diff -u" output begins with "---"/"+++" file headers, which
	// ParseFileDiff consumes before reading the hunks.
	fileDiff, err := godiff.ParseFileDiff(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parsing diff output for subcircuit %q: %w", name, err)
	}

	summaries := make([]HunkSummary, 0, len(fileDiff.Hunks))
	for _, h := range fileDiff.Hunks {
		summaries = append(summaries, HunkSummary{
			OrigStartLine: h.OrigStartLine,
			OrigLines:     h.OrigLines,
			NewStartLine:  h.NewStartLine,
			NewLines:      h.NewLines,
			Body:          string(h.Body),
		})
	}
	return summaries, nil
}

// writeTempPair writes oldContent/newContent to two temporary files named
// after the subcircuit, for the "diff" invocation to compare.
func writeTempPair(name, oldContent, newContent string) (oldPath, newPath string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "spicetrace-diff-")
	if err != nil {
		return "", "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }

	oldPath = filepath.Join(dir, name+".old.sp")
	newPath = filepath.Join(dir, name+".new.sp")
	if err := os.WriteFile(oldPath, []byte(oldContent), 0o644); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("writing old content: %w", err)
	}
	if err := os.WriteFile(newPath, []byte(newContent), 0o644); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("writing new content: %w", err)
	}
	return oldPath, newPath, cleanup, nil
}
