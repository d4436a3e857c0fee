// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package spiceconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmbeddedDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed on embedded defaults: %v", err)
	}
	if cfg.Store.DSN != "./spicetrace.db" {
		t.Errorf("expected default store dsn, got %q", cfg.Store.DSN)
	}
	if cfg.MCP.Addr != "127.0.0.1:8732" {
		t.Errorf("expected default mcp addr, got %q", cfg.MCP.Addr)
	}
	if cfg.MCP.RateLimitPerSecond != 10 {
		t.Errorf("expected default rate limit 10, got %v", cfg.MCP.RateLimitPerSecond)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled by default")
	}
}

func TestLoad_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spicetrace.yaml")
	contents := `
store:
  dsn: "/tmp/custom.db"
mcp:
  addr: "0.0.0.0:9000"
  rate_limit_per_second: 5
  rate_limit_burst: 5
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing override config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	if cfg.Store.DSN != "/tmp/custom.db" {
		t.Errorf("expected overridden dsn, got %q", cfg.Store.DSN)
	}
	if cfg.MCP.Addr != "0.0.0.0:9000" {
		t.Errorf("expected overridden mcp addr, got %q", cfg.MCP.Addr)
	}
	// Fields not set in the override file should retain embedded defaults.
	if cfg.Ngspice.BinaryPath != "ngspice" {
		t.Errorf("expected un-overridden ngspice binary_path to keep default, got %q", cfg.Ngspice.BinaryPath)
	}
}

func TestLoad_InvalidInfluxConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spicetrace.yaml")
	contents := `
influx:
  enabled: true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing override config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error when influx is enabled without url/bucket")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
