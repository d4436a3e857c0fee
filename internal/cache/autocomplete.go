// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache is spicetrace's name-autocomplete layer: a BadgerDB-backed,
// corpus-hash-keyed store of sorted model and subcircuit names, adapted
// from a tool-embedding router cache design.
//
// # Description
//
// Sorting and deduplicating names over a large corpus is cheap but not
// free; this cache persists the result between spicetrace-mcpd runs the way
// the LLM router persists tool embedding vectors — keyed by a hash of the
// corpus so any ingest that changes the name set invalidates previous
// entries automatically.
//
// # Thread Safety
//
// Safe for concurrent use. BadgerDB transactions are per-goroutine.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// defaultTTL is how long a cached name list survives before BadgerDB's GC
// reclaims it. A day is long enough to survive a single working session
// without accumulating names stale across many ingests.
const defaultTTL = 24 * time.Hour

const keyPrefix = "autocomplete/names/v1/"

var errCacheMiss = errors.New("cache miss")

// Kind distinguishes the two name spaces the cache tracks independently.
type Kind string

const (
	Models       Kind = "models"
	Subcircuits  Kind = "subcircuits"
)

// NameStore persists sorted, deduplicated name lists for autocomplete.
//
// # Description
//
// A nil *NameStore is valid and every method on it is a no-op returning a
// cache miss (or silently discarding a Save) — callers don't need a
// feature flag to run with the cache disabled.
type NameStore struct {
	db     *DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewNameStore constructs a NameStore over db. ttl <= 0 uses defaultTTL.
// logger may be nil.
func NewNameStore(db *DB, ttl time.Duration, logger *slog.Logger) *NameStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NameStore{db: db, ttl: ttl, logger: logger}
}

// Load retrieves the cached name list for kind under corpusHash. Returns
// (nil, nil) on miss (key absent, TTL expired, or a nil store/DB).
func (s *NameStore) Load(ctx context.Context, kind Kind, corpusHash string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	key := nameKey(kind, corpusHash)

	var raw []byte
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return errCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get cache key: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, errCacheMiss) {
		s.logger.Debug("autocomplete cache: miss", slog.String("kind", string(kind)), slog.String("hash", shortHash(corpusHash)))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("autocomplete cache load: %w", err)
	}

	names, err := gobDecode(raw)
	if err != nil {
		return nil, fmt.Errorf("autocomplete cache decode: %w", err)
	}
	s.logger.Debug("autocomplete cache: hit", slog.String("kind", string(kind)), slog.Int("count", len(names)))
	return names, nil
}

// Save persists names (sorted and deduplicated) for kind under corpusHash
// with the store's configured TTL. A nil store silently drops the save.
func (s *NameStore) Save(ctx context.Context, kind Kind, corpusHash string, names []string) error {
	if s == nil || s.db == nil || len(names) == 0 {
		return nil
	}

	sorted := dedupSorted(names)
	raw, err := gobEncode(sorted)
	if err != nil {
		return fmt.Errorf("autocomplete cache encode: %w", err)
	}

	key := nameKey(kind, corpusHash)
	err = s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(key, raw).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("autocomplete cache save: %w", err)
	}
	s.logger.Debug("autocomplete cache: saved", slog.String("kind", string(kind)), slog.Int("count", len(sorted)))
	return nil
}

// CorpusHash computes a deterministic key for a set of source file paths
// and their modification times, so any ingest that adds, removes, or
// touches a file invalidates the previously cached name list.
func CorpusHash(files []string, modTimes []int64) string {
	type entry struct {
		file string
		mt   int64
	}
	entries := make([]entry, len(files))
	for i, f := range files {
		entries[i].file = f
		if i < len(modTimes) {
			entries[i].mt = modTimes[i]
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].file < entries[j].file })

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\t%d\n", e.file, e.mt)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func nameKey(kind Kind, corpusHash string) []byte {
	return []byte(keyPrefix + string(kind) + "/" + corpusHash)
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8] + "..."
	}
	return h
}

func dedupSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func gobEncode(names []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(names); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte) ([]string, error) {
	var names []string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&names); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return names, nil
}
