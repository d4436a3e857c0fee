// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aleutian-labs/spicetrace/internal/spice/classify"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
)

// openTestStore opens a fresh on-disk SQLite database inside a temporary
// directory. A real file (rather than ":memory:") is used so WAL mode and
// advisory-lock tests against the same path exercise real file semantics.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spicetrace.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("openTestStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_InsertModel_WithParameters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := record.ModelRecord{
		Name:       "nmos1",
		Type:       "nmos",
		SourceFile: "design.sp",
		Line:       12,
		Parameters: map[string]classify.ParameterValue{
			"vth": {Raw: "-0.7", Kind: classify.Numeric, Scaled: -0.7},
			"l":   {Raw: "0.18u", Kind: classify.Numeric, Scaled: 0.18e-6},
		},
	}
	if err := s.InsertModel(ctx, rec); err != nil {
		t.Fatalf("InsertModel: %v", err)
	}

	var modelCount int
	if err := s.db.GetContext(ctx, &modelCount, `SELECT COUNT(*) FROM models WHERE name = 'nmos1'`); err != nil {
		t.Fatalf("counting models: %v", err)
	}
	if modelCount != 1 {
		t.Fatalf("expected 1 model row, got %d", modelCount)
	}

	var paramCount int
	if err := s.db.GetContext(ctx, &paramCount, `
		SELECT COUNT(*) FROM parameters p
		JOIN models m ON m.id = p.model_id
		WHERE m.name = 'nmos1'`); err != nil {
		t.Fatalf("counting parameters: %v", err)
	}
	if paramCount != 2 {
		t.Fatalf("expected 2 parameter rows, got %d", paramCount)
	}
}

func TestStore_InsertModel_EmptyParameters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := record.ModelRecord{Name: "bare", Type: "diode", SourceFile: "x.sp", Line: 1}
	if err := s.InsertModel(ctx, rec); err != nil {
		t.Fatalf("InsertModel with no parameters should succeed: %v", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM models WHERE name = 'bare'`); err != nil {
		t.Fatalf("counting models: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a persisted row for a parameterless model, got %d", count)
	}
}

func TestStore_InsertSubcircuit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := record.SubcircuitRecord{
		Name:       "inv1",
		Content:    ".subckt inv1 a y\n.ends",
		SourceFile: "cells.sp",
		Line:       4,
	}
	if err := s.InsertSubcircuit(ctx, rec); err != nil {
		t.Fatalf("InsertSubcircuit: %v", err)
	}

	var content string
	if err := s.db.GetContext(ctx, &content, `SELECT content FROM subcircuits WHERE name = 'inv1'`); err != nil {
		t.Fatalf("reading content: %v", err)
	}
	if content != rec.Content {
		t.Fatalf("content mismatch: got %q, want %q", content, rec.Content)
	}
}

func TestStore_InsertModel_CaseInsensitiveName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertModel(ctx, record.ModelRecord{Name: "NMOS1", Type: "nmos", SourceFile: "x.sp", Line: 1}); err != nil {
		t.Fatalf("InsertModel: %v", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM models WHERE name = 'nmos1'`); err != nil {
		t.Fatalf("counting models: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected COLLATE NOCASE to match 'nmos1' against stored 'NMOS1', got %d rows", count)
	}
}

func TestLockForWriting_ExcludesSecondAcquirer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spicetrace.db")

	lock1, err := LockForWriting(path)
	if err != nil {
		t.Fatalf("first LockForWriting: %v", err)
	}

	done := make(chan struct{})
	go func() {
		lock2, err := LockForWriting(path)
		if err != nil {
			t.Errorf("second LockForWriting: %v", err)
			close(done)
			return
		}
		defer lock2.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second LockForWriting should have blocked while the first lock is held")
	default:
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	<-done
}
