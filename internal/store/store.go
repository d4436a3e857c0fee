// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store is the extractor's relational sink: a SQLite-backed
// implementation of parser.Indexer plus the tables and indexes the query
// engine reads from.
//
// # Description
//
// A model and its parameters are written as one transaction so a reader never
// observes a model row with a partial parameter set. Subcircuits are single
// rows and need no transaction of their own beyond the implicit one SQLite
// gives every statement.
//
// # Thread Safety
//
// Store is safe for concurrent use by multiple goroutines; SQLite itself
// serializes writers. For multi-process ingestion (two "spicetrace ingest"
// invocations against the same database file) callers should additionally
// hold the advisory file lock returned by LockForWriting, since SQLite's
// own locking degrades to busy-retries under contention rather than queuing
// fairly.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sys/unix"

	"github.com/aleutian-labs/spicetrace/internal/spice/classify"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
)

// Store is a SQLite-backed implementation of parser.Indexer and the query
// engine's read path.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if absent) a SQLite database at path and ensures the
// schema exists. The returned Store owns db and must be closed by the
// caller via Close.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite database %s: %w", path, err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertModel inserts rec and all of its parameters as a single transaction,
// satisfying parser.Indexer.
func (s *Store) InsertModel(ctx context.Context, rec record.ModelRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning model transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO models (name, type, source_file, line_number) VALUES (?, ?, ?, ?)`,
		rec.Name, rec.Type, rec.SourceFile, rec.Line,
	)
	if err != nil {
		return fmt.Errorf("inserting model %q: %w", rec.Name, err)
	}
	modelID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading model id for %q: %w", rec.Name, err)
	}

	for name, pv := range rec.Parameters {
		if err := insertParameter(ctx, tx, modelID, name, pv); err != nil {
			return fmt.Errorf("inserting parameter %q for model %q: %w", name, rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing model %q: %w", rec.Name, err)
	}
	return nil
}

func insertParameter(ctx context.Context, tx *sqlx.Tx, modelID int64, name string, pv classify.ParameterValue) error {
	var kind string
	var numeric sql.NullFloat64
	switch pv.Kind {
	case classify.Numeric:
		kind = "NUMERIC"
		numeric = sql.NullFloat64{Float64: pv.Scaled, Valid: true}
	default:
		kind = "STRING"
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO parameters (model_id, name, value, parameter_type, numeric_value)
		 VALUES (?, ?, ?, ?, ?)`,
		modelID, name, pv.Raw, kind, numeric,
	)
	return err
}

// InsertSubcircuit inserts rec, satisfying parser.Indexer.
func (s *Store) InsertSubcircuit(ctx context.Context, rec record.SubcircuitRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subcircuits (name, content, source_file, line_number) VALUES (?, ?, ?, ?)`,
		rec.Name, rec.Content, rec.SourceFile, rec.Line,
	)
	if err != nil {
		return fmt.Errorf("inserting subckt %q: %w", rec.Name, err)
	}
	return nil
}

// DB exposes the underlying *sqlx.DB for the query package, which issues its
// own read-only SELECTs directly rather than through Store methods.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// FileLock is an advisory, process-wide exclusive lock guarding single-writer
// access to a SQLite database file during ingestion. It is held for the
// duration of an "ingest" invocation, not for the lifetime of the Store,
// since read-only query commands need no lock at all.
type FileLock struct {
	f *os.File
}

// LockForWriting acquires an exclusive advisory lock on dbPath + ".lock",
// blocking until it is available. Release with Unlock.
func LockForWriting(dbPath string) (*FileLock, error) {
	f, err := os.OpenFile(dbPath+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file for %s: %w", dbPath, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring exclusive lock on %s: %w", dbPath, err)
	}
	return &FileLock{f: f}, nil
}

// Unlock releases the lock and closes the underlying file handle.
func (l *FileLock) Unlock() error {
	defer l.f.Close()
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
