// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNameStore_Load_Miss(t *testing.T) {
	db := openTestDB(t)
	store := NewNameStore(db, 0, nil)

	names, err := store.Load(context.Background(), Models, "nonexistent")
	if err != nil {
		t.Fatalf("expected nil error on miss, got %v", err)
	}
	if names != nil {
		t.Fatalf("expected nil names on miss, got %v", names)
	}
}

func TestNameStore_SaveThenLoad_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewNameStore(db, 0, nil)
	ctx := context.Background()

	hash := CorpusHash([]string{"a.sp", "b.sp"}, []int64{100, 200})
	input := []string{"nmos_slow", "nmos_fast", "nmos_fast", "pmos1"}

	if err := store.Save(ctx, Models, hash, input); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, Models, hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"nmos_fast", "nmos_slow", "pmos1"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted/deduped %v, got %v", want, got)
		}
	}
}

func TestNameStore_KindsAreIndependent(t *testing.T) {
	db := openTestDB(t)
	store := NewNameStore(db, 0, nil)
	ctx := context.Background()

	hash := CorpusHash([]string{"a.sp"}, []int64{1})
	if err := store.Save(ctx, Models, hash, []string{"nmos1"}); err != nil {
		t.Fatalf("Save models: %v", err)
	}

	subs, err := store.Load(ctx, Subcircuits, hash)
	if err != nil {
		t.Fatalf("Load subcircuits: %v", err)
	}
	if subs != nil {
		t.Fatalf("expected subcircuit cache miss under the same hash, got %v", subs)
	}
}

func TestNameStore_NilStoreIsNoOp(t *testing.T) {
	var store *NameStore
	ctx := context.Background()

	if err := store.Save(ctx, Models, "x", []string{"a"}); err != nil {
		t.Fatalf("nil store Save should be a no-op, got error: %v", err)
	}
	names, err := store.Load(ctx, Models, "x")
	if err != nil || names != nil {
		t.Fatalf("nil store Load should return (nil, nil), got (%v, %v)", names, err)
	}
}

func TestCorpusHash_ChangesWithModTime(t *testing.T) {
	a := CorpusHash([]string{"f.sp"}, []int64{100})
	b := CorpusHash([]string{"f.sp"}, []int64{200})
	if a == b {
		t.Fatal("expected corpus hash to change when a file's mod time changes")
	}
}
