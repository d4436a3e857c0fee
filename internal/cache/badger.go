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
	"fmt"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// DB is a minimal BadgerDB wrapper providing context-aware transaction
// helpers over the embedded key-value store.
type DB struct {
	badger *dgbadger.DB
}

// Open opens (creating if absent) a BadgerDB instance rooted at dir.
func Open(dir string) (*DB, error) {
	opts := dgbadger.DefaultOptions(dir).WithLogger(nil)
	b, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db at %s: %w", dir, err)
	}
	return &DB{badger: b}, nil
}

// OpenInMemory opens an ephemeral, non-persisted BadgerDB instance, used by
// tests and by callers that disable the autocomplete cache's persistence.
func OpenInMemory() (*DB, error) {
	opts := dgbadger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	b, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory badger db: %w", err)
	}
	return &DB{badger: b}, nil
}

// Close releases the underlying BadgerDB instance.
func (d *DB) Close() error {
	return d.badger.Close()
}

// WithReadTxn runs fn inside a read-only Badger transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.badger.View(fn)
}

// WithTxn runs fn inside a read-write Badger transaction, committing on a
// nil return and rolling back otherwise.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.badger.Update(fn)
}
