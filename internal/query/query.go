// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query translates record.ModelFilter / record.SubcircuitFilter
// values into SQL against the store package's schema and returns the
// query engine's result shapes.
//
// # Description
//
// spec.md §9's Open Question on multi-predicate range filters is resolved
// here, not in the store: every ParameterRangePredicate on a ModelFilter is
// composed as its own correlated EXISTS clause, all AND'd together, so a
// model must satisfy every supplied range, not merely the first one.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Identical concurrent queries (same
// filter, compared structurally) are deduplicated via singleflight so a
// burst of repeated MCP tool calls issues one SQL round trip.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/aleutian-labs/spicetrace/internal/spice/record"
)

// Engine answers model and subcircuit queries against a store.Store's
// underlying database.
type Engine struct {
	db    *sqlx.DB
	group singleflight.Group
}

// New constructs an Engine over db (typically (*store.Store).DB()).
func New(db *sqlx.DB) *Engine {
	return &Engine{db: db}
}

const defaultMaxResults = 500

// modelRow mirrors the models table's queryable columns for sqlx scanning.
type modelRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// QueryModels returns every model matching filter, each paired with its
// resolved parameter map. filter.Type is required; an empty NamePattern and
// a nil Ranges slice both match unconditionally.
func (e *Engine) QueryModels(ctx context.Context, filter record.ModelFilter) (map[string]record.ParameterResult, error) {
	key, err := cacheKey("models", filter)
	if err != nil {
		return nil, err
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.queryModels(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]record.ParameterResult), nil
}

func (e *Engine) queryModels(ctx context.Context, filter record.ModelFilter) (map[string]record.ParameterResult, error) {
	if filter.Type == "" {
		return nil, fmt.Errorf("query: ModelFilter.Type is required")
	}

	limit := filter.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	var sb strings.Builder
	args := []any{filter.Type}
	sb.WriteString(`SELECT id, name FROM models WHERE type = ?`)

	if filter.NamePattern != "" {
		sb.WriteString(` AND name LIKE ?`)
		args = append(args, filter.NamePattern)
	}

	for _, rp := range filter.Ranges {
		clause, clauseArgs := rangeExistsClause(rp)
		sb.WriteString(" AND ")
		sb.WriteString(clause)
		args = append(args, clauseArgs...)
	}

	sb.WriteString(` ORDER BY name LIMIT ?`)
	args = append(args, limit)

	var rows []modelRow
	if err := e.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}

	results := make(map[string]record.ParameterResult, len(rows))
	for _, row := range rows {
		params, err := e.loadParameters(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("loading parameters for model %q: %w", row.Name, err)
		}
		results[row.Name] = params
	}
	return results, nil
}

// rangeExistsClause builds "EXISTS (SELECT 1 FROM parameters WHERE
// model_id = models.id AND name = ? AND parameter_type = 'NUMERIC' [AND
// numeric_value >= ?] [AND numeric_value <= ?])" for one predicate, driving
// the partial index on parameters(name, numeric_value).
func rangeExistsClause(rp record.ParameterRangePredicate) (string, []any) {
	var sb strings.Builder
	args := []any{rp.Name}
	sb.WriteString(`EXISTS (SELECT 1 FROM parameters WHERE model_id = models.id AND name = ? AND parameter_type = 'NUMERIC'`)
	if rp.Min != nil {
		sb.WriteString(` AND numeric_value >= ?`)
		args = append(args, *rp.Min)
	}
	if rp.Max != nil {
		sb.WriteString(` AND numeric_value <= ?`)
		args = append(args, *rp.Max)
	}
	sb.WriteString(`)`)
	return sb.String(), args
}

type parameterRow struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

func (e *Engine) loadParameters(ctx context.Context, modelID int64) (record.ParameterResult, error) {
	var rows []parameterRow
	if err := e.db.SelectContext(ctx, &rows, `SELECT name, value FROM parameters WHERE model_id = ?`, modelID); err != nil {
		return nil, err
	}
	result := make(record.ParameterResult, len(rows))
	for _, r := range rows {
		result[r.Name] = r.Value
	}
	return result, nil
}

type subcircuitRow struct {
	Content    string `db:"content"`
	SourceFile string `db:"source_file"`
	Line       int    `db:"line_number"`
}

// QuerySubcircuits returns every subcircuit matching filter.
func (e *Engine) QuerySubcircuits(ctx context.Context, filter record.SubcircuitFilter) (map[string]record.SubcircuitResult, error) {
	key, err := cacheKey("subckts", filter)
	if err != nil {
		return nil, err
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.querySubcircuits(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]record.SubcircuitResult), nil
}

func (e *Engine) querySubcircuits(ctx context.Context, filter record.SubcircuitFilter) (map[string]record.SubcircuitResult, error) {
	limit := filter.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	query := `SELECT name, content, source_file, line_number FROM subcircuits`
	args := []any{}
	if filter.NamePattern != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, filter.NamePattern)
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	var rows []struct {
		Name string `db:"name"`
		subcircuitRow
	}
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying subcircuits: %w", err)
	}

	results := make(map[string]record.SubcircuitResult, len(rows))
	for _, r := range rows {
		results[r.Name] = record.SubcircuitResult{
			Content:    r.Content,
			SourceFile: r.SourceFile,
			Line:       r.Line,
		}
	}
	return results, nil
}

// cacheKey builds a singleflight key that collapses structurally identical
// concurrent queries. Map keys are encoded in sorted order, but slice
// elements keep the caller's order, so the same ranges listed in a
// different order give a different key.
func cacheKey(kind string, filter any) (string, error) {
	b, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("building query cache key: %w", err)
	}
	return kind + ":" + string(b), nil
}
