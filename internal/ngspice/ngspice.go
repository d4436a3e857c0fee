// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ngspice bridges spicetrace's store to an external ngspice
// process. It is pure process plumbing: it never re-implements SPICE
// evaluation in Go, it only invokes the "ngspice" binary in batch mode
// against a netlist and parses its plain-text "print" output.
//
// # Description
//
// Each Run call is a single short-lived subprocess. The bridge does not
// pool or reuse ngspice processes, matching spec.md's extractor/query
// domain (infrequent diagnostic runs, not a simulation server).
//
// # Thread Safety
//
// Bridge is safe for concurrent use; every call spawns its own process
// and holds no shared mutable state.
package ngspice

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Bridge invokes an external ngspice binary in batch mode.
type Bridge struct {
	// BinaryPath is the ngspice executable. Empty resolves to "ngspice" on
	// PATH.
	BinaryPath string

	// Timeout bounds a single Run call. Zero disables the bound.
	Timeout time.Duration
}

// New constructs a Bridge. binaryPath empty resolves to "ngspice" on PATH.
func New(binaryPath string, timeout time.Duration) *Bridge {
	if binaryPath == "" {
		binaryPath = "ngspice"
	}
	return &Bridge{BinaryPath: binaryPath, Timeout: timeout}
}

// Measurement is a single named value ngspice reported via a ".print" or
// ".meas" directive in the supplied netlist.
type Measurement struct {
	Name  string
	Value float64
}

// Run executes ngspice in batch mode (-b) against netlistPath and parses
// every "name = value" line from its standard output as a Measurement.
// Lines that don't parse as "name = value" are ignored; a netlist with no
// recognizable output lines returns an empty, non-nil slice and no error.
func (b *Bridge) Run(ctx context.Context, netlistPath string) ([]Measurement, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, b.BinaryPath, "-b", netlistPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running ngspice on %s: %w (stderr: %s)", netlistPath, err, strings.TrimSpace(stderr.String()))
	}

	return parseMeasurements(stdout.Bytes()), nil
}

// parseMeasurements scans ngspice batch output for "name = value" lines.
// ngspice's own output format is not otherwise validated or interpreted —
// the bridge only extracts what looks like a scalar result line.
func parseMeasurements(output []byte) []Measurement {
	measurements := []Measurement{}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx := strings.Index(line, "=")
		if idx <= 0 || idx == len(line)-1 {
			continue
		}

		name := strings.TrimSpace(line[:idx])
		valueText := strings.TrimSpace(line[idx+1:])
		if strings.ContainsAny(name, " \t") {
			continue
		}

		value, err := strconv.ParseFloat(valueText, 64)
		if err != nil {
			continue
		}

		measurements = append(measurements, Measurement{Name: name, Value: value})
	}

	return measurements
}
