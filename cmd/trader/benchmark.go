package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/avidalm/betbench/config"
	"github.com/avidalm/betbench/internal/adapters/cache"
	"github.com/avidalm/betbench/internal/agents"
	"github.com/avidalm/betbench/internal/benchmark"
	"github.com/avidalm/betbench/internal/ports"
)

// runBenchmark loads the resolved market set, runs the reference agents
// over it (reusing cached predictions unless disabled), and writes the
// markdown comparison report.
func runBenchmark(ctx context.Context, cfg *config.Config, plat ports.MarketPlatform, ids []string, useCache bool, reportPath string) {
	if len(ids) == 0 {
		slog.Error("benchmark mode needs -markets with resolved market ids")
		os.Exit(1)
	}
	if len(ids) > cfg.Benchmark.MarketLimit {
		ids = ids[:cfg.Benchmark.MarketLimit]
	}

	markets, err := benchmark.LoadResolvedMarkets(ctx, plat, ids)
	if err != nil {
		slog.Error("failed to load markets", "err", err)
		os.Exit(1)
	}
	if len(markets) == 0 {
		slog.Error("no resolvable markets in the requested set")
		os.Exit(1)
	}

	store, err := cache.NewSQLiteCache(cfg.Benchmark.CacheDSN)
	if err != nil {
		slog.Error("failed to open prediction cache", "err", err, "dsn", cfg.Benchmark.CacheDSN)
		os.Exit(1)
	}
	defer store.Close()

	// Reference agents: the floor and the noise baseline. Fixed seed so
	// successive runs hit the cache instead of re-rolling.
	refs := []ports.Agent{
		agents.NewFixed("fixed-0.5", 0.5),
		agents.NewRandom("random", 42),
	}

	bench, err := benchmark.New(refs, markets, store)
	if err != nil {
		slog.Error("failed to build benchmarker", "err", err)
		os.Exit(1)
	}

	if err := bench.RunAgents(ctx, useCache); err != nil {
		slog.Error("benchmark run failed", "err", err)
		os.Exit(1)
	}

	report, err := bench.GenerateMarkdownReport(ctx)
	if err != nil {
		slog.Error("failed to generate report", "err", err)
		os.Exit(1)
	}

	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		slog.Error("failed to write report", "err", err, "path", reportPath)
		os.Exit(1)
	}
	slog.Info("benchmark complete", "markets", len(markets), "agents", len(refs), "report", reportPath)
}
