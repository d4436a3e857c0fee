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

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/aleutian-labs/spicetrace/internal/ngspice"
)

// SimulateBridge is the subset of *ngspice.Bridge the simulate_netlist tool
// needs.
type SimulateBridge interface {
	Run(ctx context.Context, netlistPath string) ([]ngspice.Measurement, error)
}

var _ SimulateBridge = (*ngspice.Bridge)(nil)

// RegisterSimulate adds the simulate_netlist tool, a thin wrapper over the
// ngspice process bridge (spec.md §1's non-core collaborator). It is
// registered only when a bridge is configured, keeping the core query
// surface (query_models, query_subcircuits, get_subcircuit_body)
// independent of whether ngspice is installed.
func RegisterSimulate(server *mcp.Server, bridge SimulateBridge, limiter *rate.Limiter) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate_netlist",
		Description: "Run a netlist file through ngspice in batch mode and return its reported scalar measurements.",
	}, wait(limiter, simulateHandler(bridge)))
}

// SimulateNetlistInput is simulate_netlist's input schema.
type SimulateNetlistInput struct {
	NetlistPath string `json:"netlist_path" jsonschema:"filesystem path to the netlist ngspice should load"`
}

// SimulateNetlistOutput is simulate_netlist's result.
type SimulateNetlistOutput struct {
	Measurements []ngspice.Measurement `json:"measurements"`
}

func simulateHandler(bridge SimulateBridge) func(context.Context, *mcp.CallToolRequest, SimulateNetlistInput) (*mcp.CallToolResult, SimulateNetlistOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SimulateNetlistInput) (*mcp.CallToolResult, SimulateNetlistOutput, error) {
		measurements, err := bridge.Run(ctx, in.NetlistPath)
		if err != nil {
			return nil, SimulateNetlistOutput{}, err
		}
		return nil, SimulateNetlistOutput{Measurements: measurements}, nil
	}
}
