// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aleutian-labs/spicetrace/internal/spice/classify"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
	"github.com/aleutian-labs/spicetrace/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spicetrace.db")
	s, err := store.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s.DB()), s
}

func numeric(raw string, scaled float64) classify.ParameterValue {
	return classify.ParameterValue{Raw: raw, Kind: classify.Numeric, Scaled: scaled}
}

func ptr(f float64) *float64 { return &f }

func seedModels(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	models := []record.ModelRecord{
		{
			Name: "nmos_fast", Type: "nmos", SourceFile: "a.sp", Line: 1,
			Parameters: map[string]classify.ParameterValue{
				"vth": numeric("0.3", 0.3),
				"l":   numeric("0.18u", 0.18e-6),
			},
		},
		{
			Name: "nmos_slow", Type: "nmos", SourceFile: "a.sp", Line: 2,
			Parameters: map[string]classify.ParameterValue{
				"vth": numeric("0.9", 0.9),
				"l":   numeric("1u", 1e-6),
			},
		},
		{
			Name: "pmos1", Type: "pmos", SourceFile: "a.sp", Line: 3,
			Parameters: map[string]classify.ParameterValue{
				"vth": numeric("-0.7", -0.7),
			},
		},
	}
	for _, m := range models {
		if err := s.InsertModel(ctx, m); err != nil {
			t.Fatalf("seeding model %q: %v", m.Name, err)
		}
	}
}

func TestQueryModels_ByType(t *testing.T) {
	e, s := newTestEngine(t)
	seedModels(t, s)

	got, err := e.QueryModels(context.Background(), record.ModelFilter{Type: "nmos"})
	if err != nil {
		t.Fatalf("QueryModels: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 nmos models, got %d (%v)", len(got), got)
	}
	if got["nmos_fast"]["vth"] != "0.3" {
		t.Fatalf("expected raw vth '0.3', got %q", got["nmos_fast"]["vth"])
	}
}

func TestQueryModels_NamePattern(t *testing.T) {
	e, s := newTestEngine(t)
	seedModels(t, s)

	got, err := e.QueryModels(context.Background(), record.ModelFilter{Type: "nmos", NamePattern: "%fast%"})
	if err != nil {
		t.Fatalf("QueryModels: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 model matching '%%fast%%', got %d", len(got))
	}
	if _, ok := got["nmos_fast"]; !ok {
		t.Fatalf("expected nmos_fast in results, got %v", got)
	}
}

func TestQueryModels_MultipleRangePredicates_AllMustMatch(t *testing.T) {
	e, s := newTestEngine(t)
	seedModels(t, s)

	filter := record.ModelFilter{
		Type: "nmos",
		Ranges: []record.ParameterRangePredicate{
			{Name: "vth", Min: ptr(0.0), Max: ptr(0.5)},
			{Name: "l", Max: ptr(0.5e-6)},
		},
	}
	got, err := e.QueryModels(context.Background(), filter)
	if err != nil {
		t.Fatalf("QueryModels: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 model satisfying both ranges, got %d (%v)", len(got), got)
	}
	if _, ok := got["nmos_fast"]; !ok {
		t.Fatalf("expected nmos_fast to satisfy both range predicates, got %v", got)
	}
}

func TestQueryModels_RangePredicate_ExcludesWhenOnlyOneMatches(t *testing.T) {
	e, s := newTestEngine(t)
	seedModels(t, s)

	filter := record.ModelFilter{
		Type: "nmos",
		Ranges: []record.ParameterRangePredicate{
			{Name: "vth", Min: ptr(0.8)},   // only nmos_slow
			{Name: "l", Max: ptr(0.5e-6)}, // only nmos_fast
		},
	}
	got, err := e.QueryModels(context.Background(), filter)
	if err != nil {
		t.Fatalf("QueryModels: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no model to satisfy both contradictory ranges, got %v", got)
	}
}

func TestQueryModels_RequiresType(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.QueryModels(context.Background(), record.ModelFilter{}); err == nil {
		t.Fatal("expected an error when ModelFilter.Type is empty")
	}
}

func TestQuerySubcircuits_NamePattern(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	subs := []record.SubcircuitRecord{
		{Name: "inv1", Content: ".subckt inv1 a y\n.ends", SourceFile: "cells.sp", Line: 1},
		{Name: "nand2", Content: ".subckt nand2 a b y\n.ends", SourceFile: "cells.sp", Line: 5},
	}
	for _, sc := range subs {
		if err := s.InsertSubcircuit(ctx, sc); err != nil {
			t.Fatalf("seeding subckt %q: %v", sc.Name, err)
		}
	}

	got, err := e.QuerySubcircuits(ctx, record.SubcircuitFilter{NamePattern: "inv%"})
	if err != nil {
		t.Fatalf("QuerySubcircuits: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 subcircuit matching 'inv%%', got %d", len(got))
	}
	if got["inv1"].SourceFile != "cells.sp" {
		t.Fatalf("unexpected source file: %q", got["inv1"].SourceFile)
	}
}

func TestQuerySubcircuits_EmptyPatternMatchesAll(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := s.InsertSubcircuit(ctx, record.SubcircuitRecord{Name: name, Content: "x", SourceFile: "f.sp", Line: 1}); err != nil {
			t.Fatalf("seeding subckt %q: %v", name, err)
		}
	}

	got, err := e.QuerySubcircuits(ctx, record.SubcircuitFilter{})
	if err != nil {
		t.Fatalf("QuerySubcircuits: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected all 3 subcircuits, got %d", len(got))
	}
}
