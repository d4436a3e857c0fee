// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mcptools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/aleutian-labs/spicetrace/internal/cache"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
)

// NameCache is the subset of *cache.NameStore the autocomplete tool needs.
// A nil NameCache (or a nil *cache.NameStore passed through this
// interface) degrades to always-miss, which RegisterAutocomplete handles
// by falling back to a live query.
type NameCache interface {
	Load(ctx context.Context, kind cache.Kind, corpusHash string) ([]string, error)
	Save(ctx context.Context, kind cache.Kind, corpusHash string, names []string) error
}

var _ NameCache = (*cache.NameStore)(nil)

// RegisterAutocomplete adds the autocomplete_subckt_names tool: given a
// prefix, returns matching subcircuit names, serving from nameCache when
// the corpus hasn't changed since the last call and refreshing it
// otherwise.
func RegisterAutocomplete(server *mcp.Server, engine Engine, nameCache NameCache, limiter *rate.Limiter) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "autocomplete_subckt_names",
		Description: "List subcircuit names starting with a prefix, for interactive name completion.",
	}, wait(limiter, autocompleteHandler(engine, nameCache)))
}

// AutocompleteInput is autocomplete_subckt_names' input schema.
type AutocompleteInput struct {
	Prefix string `json:"prefix" jsonschema:"case-insensitive name prefix"`
}

// AutocompleteOutput is autocomplete_subckt_names' result.
type AutocompleteOutput struct {
	Names []string `json:"names"`
}

const autocompleteMaxNames = 5000

func autocompleteHandler(engine Engine, nameCache NameCache) func(context.Context, *mcp.CallToolRequest, AutocompleteInput) (*mcp.CallToolResult, AutocompleteOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AutocompleteInput) (*mcp.CallToolResult, AutocompleteOutput, error) {
		all, err := allSubcircuitNames(ctx, engine, nameCache)
		if err != nil {
			return nil, AutocompleteOutput{}, err
		}

		prefix := strings.ToLower(in.Prefix)
		var matches []string
		for _, name := range all {
			if strings.HasPrefix(strings.ToLower(name), prefix) {
				matches = append(matches, name)
			}
		}
		return nil, AutocompleteOutput{Names: matches}, nil
	}
}

// allSubcircuitNames lists subcircuit names from engine on every call, then
// consults nameCache under a corpus hash of that sorted list, saving the
// list on a miss. Any change in the name set changes the hash, so a cached
// entry never differs from the live list. nameCache may be nil.
func allSubcircuitNames(ctx context.Context, engine Engine, nameCache NameCache) ([]string, error) {
	subs, err := engine.QuerySubcircuits(ctx, record.SubcircuitFilter{MaxResults: autocompleteMaxNames})
	if err != nil {
		return nil, fmt.Errorf("listing subcircuits for autocomplete: %w", err)
	}

	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	if nameCache != nil {
		hash := cache.CorpusHash(names, nil)
		if cached, err := nameCache.Load(ctx, cache.Subcircuits, hash); err == nil && cached != nil {
			return cached, nil
		}
		_ = nameCache.Save(ctx, cache.Subcircuits, hash, names)
	}
	return names, nil
}
