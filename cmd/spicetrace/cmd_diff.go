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
	"strings"

	"github.com/spf13/cobra"

	"github.com/aleutian-labs/spicetrace/internal/diag"
	"github.com/aleutian-labs/spicetrace/internal/extract"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
)

var diffAgainst string

// subcktCapture is a parser.Indexer that keeps only the subcircuits it
// sees, for diffing a file's definition against the store's without
// ingesting the file's models into the store.
type subcktCapture struct {
	byName map[string]record.SubcircuitRecord
}

func newSubcktCapture() *subcktCapture {
	return &subcktCapture{byName: make(map[string]record.SubcircuitRecord)}
}

func (c *subcktCapture) InsertModel(context.Context, record.ModelRecord) error { return nil }

func (c *subcktCapture) InsertSubcircuit(_ context.Context, rec record.SubcircuitRecord) error {
	c.byName[rec.Name] = rec
	return nil
}

func newDiffSubcktCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff-subckt <name>",
		Short: "Diff a stored subcircuit's body against the same-named subcircuit in another file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiffSubcktCommand,
	}
	cmd.Flags().StringVar(&diffAgainst, "against", "", "netlist file to extract the comparison subcircuit from (required)")
	cmd.MarkFlagRequired("against")
	return cmd
}

func runDiffSubcktCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	name := args[0]

	engine, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	stored, err := engine.QuerySubcircuits(ctx, record.SubcircuitFilter{NamePattern: name, MaxResults: 1})
	if err != nil {
		return fmt.Errorf("querying stored subcircuit %q: %w", name, err)
	}
	storedRec, ok := lookupFold(stored, name)
	if !ok {
		return fmt.Errorf("no stored subcircuit named %q", name)
	}

	capture := newSubcktCapture()
	driver := extract.New(capture, nil)
	if err := driver.ExtractFile(ctx, diffAgainst); err != nil {
		return fmt.Errorf("extracting %s: %w", diffAgainst, err)
	}
	against, ok := lookupFoldRecord(capture.byName, name)
	if !ok {
		return fmt.Errorf("no subcircuit named %q found in %s", name, diffAgainst)
	}

	hunks, err := diag.DiffSubcircuits(ctx, name, storedRec.Content, against.Content)
	if err != nil {
		return err
	}
	if len(hunks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("%s: identical", name)))
		return nil
	}

	for _, h := range hunks {
		fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)))
		fmt.Fprint(cmd.OutOrStdout(), h.Body)
	}
	return nil
}

func lookupFold(m map[string]record.SubcircuitResult, name string) (record.SubcircuitResult, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return record.SubcircuitResult{}, false
}

func lookupFoldRecord(m map[string]record.SubcircuitRecord, name string) (record.SubcircuitRecord, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return record.SubcircuitRecord{}, false
}
