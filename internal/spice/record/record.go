// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package record holds the extractor's output types and the query engine's
// input filter types. These are the nouns shared across the parser,
// indexer, and query engine packages.
package record

import "github.com/aleutian-labs/spicetrace/internal/spice/classify"

// ModelRecord is a single ".model" directive's extracted content. Keys in
// Parameters are lowercase parameter names; the map has no guaranteed
// iteration order and may be empty (a model with no parameters is a valid,
// persisted record — spec.md §9 Open Questions).
type ModelRecord struct {
	Name       string
	Type       string
	SourceFile string
	Line       int
	Parameters map[string]classify.ParameterValue
}

// SubcircuitRecord is a single ".subckt" ... ".ends" directive's captured
// raw body, from the header line through the matching ".ends" line
// inclusive, joined with newlines.
type SubcircuitRecord struct {
	Name       string
	Content    string
	SourceFile string
	Line       int
}

// ParameterRangePredicate selects models that have at least one numeric
// parameter named Name whose scaled value falls within [Min, Max] (either
// bound may be absent). At least one of Min/Max must be set for the
// predicate to be meaningful.
type ParameterRangePredicate struct {
	Name string
	Min  *float64
	Max  *float64
}

// ModelFilter is the query engine's input for a model lookup.
type ModelFilter struct {
	// Type is required and compared case-insensitively.
	Type string

	// NamePattern is an optional SQL-LIKE pattern ('%' wildcard), compared
	// case-insensitively.
	NamePattern string

	// Ranges is zero or more range predicates, each composed as an AND'd
	// EXISTS clause (SPEC_FULL.md §3 resolves the single-predicate
	// limitation noted in spec.md §9 by composing all of them, rather than
	// honoring only the first).
	Ranges []ParameterRangePredicate

	// MaxResults caps the number of distinct models returned.
	MaxResults int
}

// SubcircuitFilter is the query engine's input for a subcircuit lookup.
type SubcircuitFilter struct {
	// NamePattern is an optional SQL-LIKE pattern, compared
	// case-insensitively. Empty matches every subcircuit.
	NamePattern string

	MaxResults int
}

// ParameterResult is a single model's reported parameters: name to raw
// textual value (the SI suffix, if any, intact). The scaled numeric used
// for range filtering is never part of the result shape.
type ParameterResult map[string]string

// SubcircuitResult is a single subcircuit's reported content.
type SubcircuitResult struct {
	Content    string
	SourceFile string
	Line       int
}
