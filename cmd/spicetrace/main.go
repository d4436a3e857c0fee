// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command spicetrace ingests SPICE netlists into a queryable store and
// answers model/subcircuit queries from the command line.
//
// Usage:
//
//	spicetrace ingest design.sp cells/
//	spicetrace ingest gs://my-bucket/netlists
//	spicetrace ingest --watch ./incoming
//	spicetrace query models --type nmos --name '%fast%' --range vth:0:0.5
//	spicetrace query subckts --name 'inv%'
//	spicetrace query models --interactive
//	spicetrace diff-subckt inv1 --against old.sp
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configPath is the --config persistent flag shared by every subcommand.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spicetrace",
		Short: "Extract and query SPICE netlist models and subcircuits",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a spicetrace YAML config file (defaults embedded)")

	root.AddCommand(newIngestCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newDiffSubcktCmd())
	return root
}
