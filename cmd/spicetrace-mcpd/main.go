// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command spicetrace-mcpd keeps a spicetrace store warm and exposes it to
// MCP clients over HTTP, alongside a small health/metrics control surface.
//
// Usage:
//
//	spicetrace-mcpd --config spicetrace.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/aleutian-labs/spicetrace/internal/cache"
	"github.com/aleutian-labs/spicetrace/internal/mcptools"
	"github.com/aleutian-labs/spicetrace/internal/metrics"
	"github.com/aleutian-labs/spicetrace/internal/ngspice"
	"github.com/aleutian-labs/spicetrace/internal/query"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
	"github.com/aleutian-labs/spicetrace/internal/spiceconfig"
	"github.com/aleutian-labs/spicetrace/internal/store"
	"github.com/aleutian-labs/spicetrace/internal/telemetry"
)

// meteredEngine wraps *query.Engine with Prometheus/Influx recording,
// satisfying mcptools.Engine so every MCP tool call's latency and result
// count is observed, without teaching the query package itself about
// metrics. The CLI's query path is not metered.
type meteredEngine struct {
	engine   *query.Engine
	recorder *metrics.Recorder
}

func (m *meteredEngine) QueryModels(ctx context.Context, filter record.ModelFilter) (map[string]record.ParameterResult, error) {
	start := time.Now()
	results, err := m.engine.QueryModels(ctx, filter)
	if err == nil {
		m.recorder.RecordQuery(ctx, "models", time.Since(start).Seconds(), len(results))
	}
	return results, err
}

func (m *meteredEngine) QuerySubcircuits(ctx context.Context, filter record.SubcircuitFilter) (map[string]record.SubcircuitResult, error) {
	start := time.Now()
	results, err := m.engine.QuerySubcircuits(ctx, filter)
	if err == nil {
		m.recorder.RecordQuery(ctx, "subcircuits", time.Since(start).Seconds(), len(results))
	}
	return results, err
}

func main() {
	configPath := flag.String("config", "", "path to a spicetrace YAML config file (defaults embedded)")
	debug := flag.Bool("debug", false, "enable gin debug mode and request logging")
	flag.Parse()

	if err := run(*configPath, *debug); err != nil {
		slog.Error("spicetrace-mcpd exiting", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	cfg, err := spiceconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, "spicetrace-mcpd", prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	st, err := store.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	engine := query.New(st.DB())

	nameStore, nameDB := openNameCache(cfg)
	if nameDB != nil {
		defer nameDB.Close()
	}

	recorder := metrics.New(openInflux(cfg), slog.Default())
	metered := &meteredEngine{engine: engine, recorder: recorder}

	limiter := rate.NewLimiter(rate.Limit(cfg.MCP.RateLimitPerSecond), cfg.MCP.RateLimitBurst)

	server := mcp.NewServer(&mcp.Implementation{Name: "spicetrace", Version: "0.1.0"}, nil)
	mcptools.Register(server, metered, limiter)
	mcptools.RegisterAutocomplete(server, metered, nameStore, limiter)

	if cfg.Ngspice.BinaryPath != "" {
		bridge := ngspice.New(cfg.Ngspice.BinaryPath, time.Duration(cfg.Ngspice.TimeoutSeconds)*time.Second)
		mcptools.RegisterSimulate(server, bridge, limiter)
	}

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("spicetrace-mcpd"))
	if debug {
		router.Use(gin.Logger())
	}

	router.GET("/healthz", func(c *gin.Context) {
		if err := st.DB().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Any("/mcp", gin.WrapH(mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)))

	srv := &http.Server{Addr: cfg.MCP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("spicetrace-mcpd listening", slog.String("addr", cfg.MCP.Addr), slog.String("store", cfg.Store.DSN))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// openNameCache opens the autocomplete BadgerDB when configured, returning
// the NameStore wrapper for MCP tool use and the underlying *cache.DB for
// main to defer-close. Both are nil when caching is disabled or
// unavailable; cache.NameStore's methods are nil-receiver-safe, so callers
// never need to branch on this.
func openNameCache(cfg *spiceconfig.Config) (*cache.NameStore, *cache.DB) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	db, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		slog.Warn("autocomplete cache unavailable, continuing without it", slog.String("error", err.Error()))
		return nil, nil
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	return cache.NewNameStore(db, ttl, slog.Default()), db
}

func openInflux(cfg *spiceconfig.Config) metrics.Sink {
	if !cfg.Influx.Enabled {
		return nil
	}
	sink, err := metrics.NewInfluxSink(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
	if err != nil {
		slog.Warn("influx metrics sink unavailable, continuing with prometheus only", slog.String("error", err.Error()))
		return nil
	}
	return sink
}
