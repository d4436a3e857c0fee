// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/aleutian-labs/spicetrace/internal/query"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
	"github.com/aleutian-labs/spicetrace/internal/spiceconfig"
	"github.com/aleutian-labs/spicetrace/internal/store"
)

var (
	queryType        string
	queryNamePattern string
	queryRanges      []string
	queryMaxResults  int
	queryInteractive bool
)

func newQueryCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "query",
		Short: "Query the store for models or subcircuits",
	}
	root.PersistentFlags().StringVar(&queryNamePattern, "name", "", "SQL-LIKE name pattern ('%' wildcard), case-insensitive")
	root.PersistentFlags().IntVar(&queryMaxResults, "max-results", 0, "cap the number of results (0 uses the engine default)")
	root.PersistentFlags().BoolVar(&queryInteractive, "interactive", false, "build the filter interactively instead of from flags")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Query .model directives",
		RunE:  runQueryModelsCommand,
	}
	modelsCmd.Flags().StringVar(&queryType, "type", "", "device type, e.g. nmos, pmos, npn")
	modelsCmd.Flags().StringArrayVar(&queryRanges, "range", nil, "numeric parameter range as name:min:max (either bound may be empty)")

	subcktsCmd := &cobra.Command{
		Use:   "subckts",
		Short: "Query .subckt directives",
		RunE:  runQuerySubcircuitsCommand,
	}

	root.AddCommand(modelsCmd, subcktsCmd)
	return root
}

func openEngine(ctx context.Context) (*query.Engine, func(), error) {
	cfg, err := spiceconfig.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	s, err := store.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return query.New(s.DB()), func() { s.Close() }, nil
}

func runQueryModelsCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	filter := record.ModelFilter{
		Type:        queryType,
		NamePattern: queryNamePattern,
		MaxResults:  queryMaxResults,
	}

	if queryInteractive {
		if err := runInteractiveModelForm(&filter); err != nil {
			return err
		}
	} else {
		ranges, err := parseRangeFlags(queryRanges)
		if err != nil {
			return err
		}
		filter.Ranges = ranges
	}

	results, err := engine.QueryModels(ctx, filter)
	if err != nil {
		return err
	}
	return printJSON(cmd, results)
}

func runQuerySubcircuitsCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	filter := record.SubcircuitFilter{
		NamePattern: queryNamePattern,
		MaxResults:  queryMaxResults,
	}

	results, err := engine.QuerySubcircuits(ctx, filter)
	if err != nil {
		return err
	}
	return printJSON(cmd, results)
}

// parseRangeFlags parses "name:min:max" strings into range predicates.
// Either bound may be left empty ("vth::0.9" means "no lower bound").
func parseRangeFlags(raw []string) ([]record.ParameterRangePredicate, error) {
	preds := make([]record.ParameterRangePredicate, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --range %q: expected name:min:max", r)
		}
		pred := record.ParameterRangePredicate{Name: parts[0]}
		if parts[1] != "" {
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --range %q: min is not a number: %w", r, err)
			}
			pred.Min = &v
		}
		if parts[2] != "" {
			v, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --range %q: max is not a number: %w", r, err)
			}
			pred.Max = &v
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

// runInteractiveModelForm prompts for type/name pattern/ranges via a huh
// form, overwriting filter in place.
func runInteractiveModelForm(filter *record.ModelFilter) error {
	var rangesText string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Device type").
				Description("e.g. nmos, pmos, npn").
				Value(&filter.Type).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("device type is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Name pattern").
				Description("SQL-LIKE pattern, '%' wildcard, optional").
				Value(&filter.NamePattern),
			huh.NewInput().
				Title("Parameter ranges").
				Description("comma-separated name:min:max, optional").
				Value(&rangesText),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive form: %w", err)
	}

	if strings.TrimSpace(rangesText) != "" {
		raw := strings.Split(rangesText, ",")
		for i := range raw {
			raw[i] = strings.TrimSpace(raw[i])
		}
		ranges, err := parseRangeFlags(raw)
		if err != nil {
			return err
		}
		filter.Ranges = ranges
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
