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

// schemaStatements creates the three relations and every index spec.md
// §4.4 calls required (not incidental): type/name lookups on models,
// model_id/name lookups on parameters, the partial numeric-range index,
// and the subcircuit name index. SQLite's COLLATE NOCASE gives the store
// its case-insensitive comparison without per-query LOWER() calls.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS models (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL COLLATE NOCASE,
		type        TEXT NOT NULL COLLATE NOCASE,
		source_file TEXT NOT NULL,
		line_number INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_models_type ON models(type)`,
	`CREATE INDEX IF NOT EXISTS idx_models_name ON models(name)`,

	`CREATE TABLE IF NOT EXISTS parameters (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		model_id       INTEGER NOT NULL REFERENCES models(id) ON DELETE CASCADE,
		name           TEXT NOT NULL COLLATE NOCASE,
		value          TEXT NOT NULL,
		parameter_type TEXT NOT NULL CHECK (parameter_type IN ('NUMERIC', 'STRING')),
		numeric_value  REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parameters_model_id ON parameters(model_id)`,
	`CREATE INDEX IF NOT EXISTS idx_parameters_name ON parameters(name)`,
	`CREATE INDEX IF NOT EXISTS idx_parameters_range ON parameters(name, numeric_value)
		WHERE parameter_type = 'NUMERIC'`,

	`CREATE TABLE IF NOT EXISTS subcircuits (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL COLLATE NOCASE,
		content     TEXT NOT NULL,
		source_file TEXT NOT NULL,
		line_number INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subcircuits_name ON subcircuits(name)`,
}
