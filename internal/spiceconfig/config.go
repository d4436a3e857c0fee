// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package spiceconfig loads and validates spicetrace's YAML configuration:
// extractor, store, cache, MCP server, and ngspice bridge settings.
//
// Description:
//
//	A default configuration is embedded in the binary so spicetrace runs
//	with no config file at all; an explicit file, when given, is merged
//	over those defaults field by field.
//
// Thread Safety: Config is immutable after Load returns; safe for
// concurrent use.
package spiceconfig

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// ExtractorConfig controls the lex/parse/ingest path.
type ExtractorConfig struct {
	// LogPath is where anomaly warnings (dropped models, malformed
	// directives, unclosed subcircuits) are appended. Empty disables
	// anomaly logging.
	LogPath string `yaml:"log_path"`
}

// StoreConfig controls the SQLite-backed relational sink.
type StoreConfig struct {
	// DSN is the path to the SQLite database file.
	DSN string `yaml:"dsn" validate:"required"`
}

// CacheConfig controls the BadgerDB-backed autocomplete cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required_if=Enabled true"`
	// TTLSeconds is the lifetime of a cached autocomplete entry.
	TTLSeconds int `yaml:"ttl_seconds" validate:"omitempty,gt=0"`
}

// MCPConfig controls the Model Context Protocol tool server.
type MCPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// RateLimitPerSecond caps tool invocations per server; one limiter is
	// shared by all tools and clients.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int     `yaml:"rate_limit_burst" validate:"gt=0"`
}

// InfluxConfig optionally mirrors query/ingest metrics to InfluxDB.
type InfluxConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" validate:"required_if=Enabled true"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket" validate:"required_if=Enabled true"`
}

// NgspiceConfig controls the external ngspice simulation bridge.
type NgspiceConfig struct {
	// BinaryPath is the ngspice executable to invoke. Empty leaves the
	// bridge unconfigured: spicetrace-mcpd then does not register the
	// simulate_netlist tool.
	BinaryPath string `yaml:"binary_path"`
	// TimeoutSeconds bounds a single simulation run.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"omitempty,gt=0"`
}

// Config is the root of spicetrace's configuration.
type Config struct {
	Extractor ExtractorConfig `yaml:"extractor"`
	Store     StoreConfig     `yaml:"store" validate:"required"`
	Cache     CacheConfig     `yaml:"cache"`
	MCP       MCPConfig       `yaml:"mcp" validate:"required"`
	Influx    InfluxConfig    `yaml:"influx"`
	Ngspice   NgspiceConfig   `yaml:"ngspice"`
}

var validate = validator.New()

// Load reads and validates the configuration at path, merging it over the
// embedded defaults. An empty path returns the defaults unmodified.
func Load(path string) (*Config, error) {
	cfg, err := parse(defaultConfigYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded default config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
