// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mcptools exposes spicetrace's query engine as Model Context
// Protocol tools: query_models, query_subcircuits, and
// get_subcircuit_body.
//
// # Description
//
// Each tool call is rate-limited per server instance (not per client —
// spicetrace-mcpd is expected to run one server process per client
// connection in its default configuration) to bound how fast an agent can
// hammer the SQLite store.
//
// # Thread Safety
//
// Register is called once at server startup. The registered handlers are
// safe for concurrent invocation; golang.org/x/time/rate.Limiter is itself
// safe for concurrent use.
package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/aleutian-labs/spicetrace/internal/query"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
)

// Engine is the subset of *query.Engine the tool handlers need.
type Engine interface {
	QueryModels(ctx context.Context, filter record.ModelFilter) (map[string]record.ParameterResult, error)
	QuerySubcircuits(ctx context.Context, filter record.SubcircuitFilter) (map[string]record.SubcircuitResult, error)
}

var _ Engine = (*query.Engine)(nil)

// Register adds spicetrace's three tools to server, each guarded by
// limiter. limiter may be nil to run unlimited (tests only; production
// configuration always supplies one built from spiceconfig.MCPConfig).
func Register(server *mcp.Server, engine Engine, limiter *rate.Limiter) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_models",
		Description: "List SPICE .model directives matching a device type, an optional case-insensitive name pattern, and optional numeric parameter ranges.",
	}, wait(limiter, queryModelsHandler(engine)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_subcircuits",
		Description: "List SPICE .subckt names matching an optional case-insensitive name pattern.",
	}, wait(limiter, querySubcircuitsHandler(engine)))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subcircuit_body",
		Description: "Fetch the full original-case body text of a single named subcircuit.",
	}, wait(limiter, getSubcircuitBodyHandler(engine)))
}

// wait wraps a tool handler so every invocation first blocks on limiter,
// propagating context cancellation instead of the call silently hanging.
func wait[In, Out any](limiter *rate.Limiter, next func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error)) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				var zero Out
				return nil, zero, fmt.Errorf("rate limit: %w", err)
			}
		}
		return next(ctx, req, in)
	}
}

// QueryModelsInput is query_models' input schema.
type QueryModelsInput struct {
	Type        string              `json:"type" jsonschema:"the device type, e.g. nmos, pmos, npn"`
	NamePattern string              `json:"name_pattern,omitempty" jsonschema:"optional SQL-LIKE pattern, case-insensitive"`
	Ranges      []RangeInput        `json:"ranges,omitempty" jsonschema:"optional numeric parameter range filters, all of which must match"`
	MaxResults  int                 `json:"max_results,omitempty" jsonschema:"maximum number of models to return"`
}

// RangeInput is one numeric parameter range constraint.
type RangeInput struct {
	Name string   `json:"name" jsonschema:"parameter name"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// QueryModelsOutput is query_models' result: model name to parameter map.
type QueryModelsOutput struct {
	Models map[string]record.ParameterResult `json:"models"`
}

func queryModelsHandler(engine Engine) func(context.Context, *mcp.CallToolRequest, QueryModelsInput) (*mcp.CallToolResult, QueryModelsOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in QueryModelsInput) (*mcp.CallToolResult, QueryModelsOutput, error) {
		ranges := make([]record.ParameterRangePredicate, 0, len(in.Ranges))
		for _, r := range in.Ranges {
			ranges = append(ranges, record.ParameterRangePredicate{Name: r.Name, Min: r.Min, Max: r.Max})
		}

		models, err := engine.QueryModels(ctx, record.ModelFilter{
			Type:        in.Type,
			NamePattern: in.NamePattern,
			Ranges:      ranges,
			MaxResults:  in.MaxResults,
		})
		if err != nil {
			return nil, QueryModelsOutput{}, err
		}
		return nil, QueryModelsOutput{Models: models}, nil
	}
}

// QuerySubcircuitsInput is query_subcircuits' input schema.
type QuerySubcircuitsInput struct {
	NamePattern string `json:"name_pattern,omitempty" jsonschema:"optional SQL-LIKE pattern, case-insensitive"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// QuerySubcircuitsOutput is query_subcircuits' result: subcircuit name to
// its source location (never its full body — see get_subcircuit_body).
type QuerySubcircuitsOutput struct {
	Subcircuits map[string]SubcircuitLocation `json:"subcircuits"`
}

// SubcircuitLocation is a subcircuit's source location without its body.
type SubcircuitLocation struct {
	SourceFile string `json:"source_file"`
	Line       int    `json:"line"`
}

func querySubcircuitsHandler(engine Engine) func(context.Context, *mcp.CallToolRequest, QuerySubcircuitsInput) (*mcp.CallToolResult, QuerySubcircuitsOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in QuerySubcircuitsInput) (*mcp.CallToolResult, QuerySubcircuitsOutput, error) {
		subs, err := engine.QuerySubcircuits(ctx, record.SubcircuitFilter{
			NamePattern: in.NamePattern,
			MaxResults:  in.MaxResults,
		})
		if err != nil {
			return nil, QuerySubcircuitsOutput{}, err
		}

		out := make(map[string]SubcircuitLocation, len(subs))
		for name, sc := range subs {
			out[name] = SubcircuitLocation{SourceFile: sc.SourceFile, Line: sc.Line}
		}
		return nil, QuerySubcircuitsOutput{Subcircuits: out}, nil
	}
}

// GetSubcircuitBodyInput is get_subcircuit_body's input schema.
type GetSubcircuitBodyInput struct {
	Name string `json:"name" jsonschema:"exact subcircuit name, case-insensitive"`
}

// GetSubcircuitBodyOutput is get_subcircuit_body's result.
type GetSubcircuitBodyOutput struct {
	Content    string `json:"content"`
	SourceFile string `json:"source_file"`
	Line       int    `json:"line"`
	Found      bool   `json:"found"`
}

func getSubcircuitBodyHandler(engine Engine) func(context.Context, *mcp.CallToolRequest, GetSubcircuitBodyInput) (*mcp.CallToolResult, GetSubcircuitBodyOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GetSubcircuitBodyInput) (*mcp.CallToolResult, GetSubcircuitBodyOutput, error) {
		subs, err := engine.QuerySubcircuits(ctx, record.SubcircuitFilter{NamePattern: in.Name, MaxResults: 1})
		if err != nil {
			return nil, GetSubcircuitBodyOutput{}, err
		}

		sc, ok := subs[in.Name]
		if !ok {
			// QuerySubcircuits' SQL comparison is case-insensitive, but its
			// result map is keyed by the name's stored casing, which may
			// differ from in.Name's casing.
			for name, candidate := range subs {
				if strings.EqualFold(name, in.Name) {
					sc, ok = candidate, true
					break
				}
			}
		}
		if !ok {
			return nil, GetSubcircuitBodyOutput{Found: false}, nil
		}
		return nil, GetSubcircuitBodyOutput{
			Content:    sc.Content,
			SourceFile: sc.SourceFile,
			Line:       sc.Line,
			Found:      true,
		}, nil
	}
}
