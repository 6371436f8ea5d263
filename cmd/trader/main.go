package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/config"
	"github.com/avidalm/betbench/internal/agents"
	"github.com/avidalm/betbench/internal/pipeline"
	"github.com/avidalm/betbench/internal/platform"
	"github.com/avidalm/betbench/internal/ports"
	"github.com/avidalm/betbench/internal/strategy"
)

// pause between trading cycles when not running with -once
const runInterval = 15 * time.Minute

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "trade", "run mode: trade|benchmark")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	agentSpec := flag.String("agent", "random", "agent: random|fixed:<pYes>")
	marketIDs := flag.String("markets", "", "comma-separated resolved market ids (benchmark mode)")
	noCache := flag.Bool("no-cache", false, "ignore cached predictions (benchmark mode)")
	reportPath := flag.String("out", "report.md", "benchmark report output path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("betbench starting",
		"config", *configPath,
		"mode", *mode,
		"platform", cfg.Platform.Name,
		"once", *once,
	)

	plat, err := platform.FromConfig(cfg)
	if err != nil {
		slog.Error("failed to build platform", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "benchmark":
		runBenchmark(ctx, cfg, plat, splitIDs(*marketIDs), !*noCache, *reportPath)
	case "trade":
		agent, err := parseAgent(*agentSpec)
		if err != nil {
			slog.Error("invalid agent", "err", err)
			os.Exit(1)
		}
		runTrader(ctx, cfg, plat, agent, *once)
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	slog.Info("betbench stopped cleanly")
}

// runTrader executes trading cycles until ctx is cancelled, or a single
// cycle with -once. Each cycle gets its own deadline from config.
func runTrader(ctx context.Context, cfg *config.Config, plat ports.MarketPlatform, agent ports.Agent, once bool) {
	kelly := strategy.NewKelly(strategy.Params{
		MaxStake:          decimal.NewFromFloat(cfg.Strategy.MaxStake),
		MinEdge:           cfg.Strategy.MinEdge,
		KellyFraction:     cfg.Strategy.KellyFraction,
		AllowOppositeBets: cfg.Strategy.AllowOppositeBets,
	})

	pipe := pipeline.New(pipeline.Config{
		Identity:         cfg.Platform.Identity,
		MarketLimit:      cfg.Pipeline.MarketLimit,
		MaxMarketsPerRun: cfg.Pipeline.MaxMarketsPerRun,
		SortBy:           ports.SortBy(cfg.Pipeline.SortBy),
	}, plat, agent, kelly)

	for {
		runCtx := ctx
		var cancel context.CancelFunc = func() {}
		if d := cfg.Deadline(); d > 0 {
			runCtx, cancel = context.WithTimeout(ctx, d)
		}

		records, summary, err := pipe.Run(runCtx)
		cancel()
		if err != nil {
			slog.Error("trading run aborted", "err", err)
			os.Exit(1)
		}
		printRunSummary(os.Stdout, records, summary)

		if once || ctx.Err() != nil {
			return
		}

		slog.Info("sleeping until next cycle", "interval", runInterval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(runInterval):
		}
	}
}

// parseAgent builds the reference agent named on the command line.
func parseAgent(arg string) (ports.Agent, error) {
	if arg == "random" {
		return agents.NewRandom("random", time.Now().UnixNano()), nil
	}
	if rest, ok := strings.CutPrefix(arg, "fixed:"); ok {
		pYes, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", arg, err)
		}
		return agents.NewFixed(fmt.Sprintf("fixed-%s", rest), pYes), nil
	}
	return nil, fmt.Errorf("unknown agent %q", arg)
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
