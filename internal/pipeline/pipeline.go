// Package pipeline runs the per-market trading lifecycle:
//
//	Fetched → Verified → Answered → Sized → Submitted → Recorded
//
// with early exits Skipped (expected) and Failed (platform/agent error).
// Every fetched market produces exactly one ProcessedMarket record, so a
// run is a total function over its market set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
	"github.com/avidalm/betbench/internal/ports"
	"github.com/avidalm/betbench/internal/strategy"
)

// Config controls one pipeline invocation.
type Config struct {
	// Identity is the agent's platform identity (wallet address, user id).
	Identity string
	// MarketLimit bounds how many open markets are fetched.
	MarketLimit int
	// MaxMarketsPerRun stops after this many markets were actually traded
	// (submitted). 0 means no cap.
	MaxMarketsPerRun int
	SortBy           ports.SortBy
}

// Pipeline wires one agent, one strategy, and one platform.
type Pipeline struct {
	cfg      Config
	platform ports.MarketPlatform
	agent    ports.Agent
	strategy strategy.Strategy
}

// New builds a pipeline. The strategy is the default sizing; agents that
// implement ports.TradeBuilder override it per market.
func New(cfg Config, platform ports.MarketPlatform, agent ports.Agent, strat strategy.Strategy) *Pipeline {
	if cfg.MarketLimit <= 0 {
		cfg.MarketLimit = 20
	}
	if cfg.SortBy == "" {
		cfg.SortBy = ports.SortClosingSoonest
	}
	return &Pipeline{cfg: cfg, platform: platform, agent: agent, strategy: strat}
}

// Run processes the fetched markets sequentially and returns one record
// per processed market plus the Skipped/Failed/Submitted counts. Trade
// submission is strictly serialized: concurrent trades from one identity
// are undefined behavior on the underlying platforms.
//
// When ctx's deadline hits, the in-flight market finishes its current
// trade (never aborted mid-trade) and the remaining markets are omitted
// from the output, not recorded as Failed. The returned error is non-nil
// only for contract violations, which abort the whole run.
func (p *Pipeline) Run(ctx context.Context) ([]domain.ProcessedMarket, domain.RunSummary, error) {
	markets, err := p.platform.OpenMarkets(ctx, p.cfg.MarketLimit, p.cfg.SortBy)
	if err != nil {
		return nil, domain.RunSummary{}, fmt.Errorf("pipeline.Run: fetch markets: %w", err)
	}

	var (
		records []domain.ProcessedMarket
		summary domain.RunSummary
		seen    = make(map[string]bool, len(markets))
	)

	for _, m := range markets {
		if ctx.Err() != nil {
			slog.Warn("pipeline: run deadline reached, omitting remaining markets",
				"processed", len(records), "remaining", len(markets)-len(records))
			break
		}
		if seen[m.ID] {
			continue // each market is processed at most once per run
		}
		seen[m.ID] = true

		rec, err := p.ProcessMarket(ctx, m)
		if err != nil {
			return records, summary, err
		}
		records = append(records, rec)

		switch rec.Status {
		case domain.StatusSubmitted:
			summary.Submitted++
		case domain.StatusSkipped:
			summary.Skipped++
		case domain.StatusFailed:
			summary.Failed++
		}

		if p.cfg.MaxMarketsPerRun > 0 && summary.Submitted >= p.cfg.MaxMarketsPerRun {
			slog.Info("pipeline: per-run market cap reached", "cap", p.cfg.MaxMarketsPerRun)
			break
		}
	}

	slog.Info("pipeline: run complete",
		"submitted", summary.Submitted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return records, summary, nil
}

// ProcessMarket runs the full lifecycle on one market. Platform and agent
// failures are contained here and become a Failed record; only contract
// violations (e.g. a negative stake out of the strategy) return an error.
func (p *Pipeline) ProcessMarket(ctx context.Context, m domain.Market) (domain.ProcessedMarket, error) {
	rec := domain.NewProcessedMarket(m, time.Now().UTC())

	if err := m.Validate(); err != nil {
		return p.failed(rec, fmt.Sprintf("invalid market snapshot: %v", err)), nil
	}
	if !m.IsOpen() {
		return p.skipped(rec, "market is not open"), nil
	}

	ok, err := p.agent.Verify(ctx, m)
	if err != nil {
		return p.failed(rec, fmt.Sprintf("verify: %v", err)), nil
	}
	if !ok {
		slog.Debug("pipeline: market excluded by agent policy", "market", m.ID)
		return p.skipped(rec, "verification failed"), nil
	}

	result := p.agent.Answer(ctx, m)
	switch result.Status {
	case domain.Abstained:
		return p.skipped(rec, "agent abstained"), nil
	case domain.Errored:
		return p.failed(rec, fmt.Sprintf("answer: %v", result.Err)), nil
	}
	rec.Answer = result.Answer

	trades, fatalErr, failReason := p.sizeTrades(ctx, m, *result.Answer)
	if fatalErr != nil {
		return rec, fatalErr
	}
	if failReason != "" {
		return p.failed(rec, failReason), nil
	}
	if len(trades) == 0 {
		return p.skipped(rec, "insufficient edge"), nil
	}

	return p.submit(ctx, rec, m, trades), nil
}

// sizeTrades reads balance and position fresh from the platform and sizes
// the trade list. A strategy error is a contract violation (fatal); a
// platform read error fails only this market.
func (p *Pipeline) sizeTrades(ctx context.Context, m domain.Market, answer domain.ProbabilisticAnswer) (trades []domain.Trade, fatal error, failReason string) {
	position, err := p.platform.GetPosition(ctx, p.cfg.Identity, m)
	if err != nil {
		return nil, nil, fmt.Sprintf("read position: %v", err)
	}

	if builder, ok := p.agent.(ports.TradeBuilder); ok {
		trades, err = builder.BuildTrades(ctx, m, answer, position)
		if err != nil {
			return nil, nil, fmt.Sprintf("agent sizing: %v", err)
		}
		if err := validateTrades(trades); err != nil {
			return nil, fmt.Errorf("pipeline: agent %s: %w", p.agent.Name(), err), ""
		}
		return trades, nil, ""
	}

	balance, err := p.platform.Balance(ctx, p.cfg.Identity)
	if err != nil {
		return nil, nil, fmt.Sprintf("read balance: %v", err)
	}

	trades, err = p.strategy.SizeTrades(answer, m, position, balance)
	if err != nil {
		return nil, fmt.Errorf("pipeline: strategy contract violated: %w", err), ""
	}
	return trades, nil, ""
}

// submit sends the trades one by one. InsufficientBalance or a rejection
// abandons the market's remaining trades but keeps the executed prefix in
// the record; later markets in the batch still run. The current trade is
// never cancelled mid-flight by the run deadline.
func (p *Pipeline) submit(ctx context.Context, rec domain.ProcessedMarket, m domain.Market, trades []domain.Trade) domain.ProcessedMarket {
	tradeCtx := context.WithoutCancel(ctx)

	for i, t := range trades {
		if i > 0 && ctx.Err() != nil {
			return p.failed(rec, fmt.Sprintf("run deadline after %d of %d trades", i, len(trades)))
		}

		receipt, err := p.platform.PlaceTrade(tradeCtx, m, t)
		if err != nil {
			reason := fmt.Sprintf("trade %d of %d: %v", i+1, len(trades), err)
			if errors.Is(err, domain.ErrInsufficientBalance) {
				reason = fmt.Sprintf("trade %d of %d: insufficient balance, remaining trades abandoned", i+1, len(trades))
			}
			slog.Warn("pipeline: trade failed", "market", m.ID, "err", err)
			return p.failed(rec, reason)
		}
		rec.Trades = append(rec.Trades, domain.ExecutedTrade{Trade: t, Receipt: receipt})
		slog.Info("pipeline: trade settled",
			"market", m.ID,
			"type", t.Type,
			"outcome", t.Outcome,
			"amount", t.Amount.String(),
			"ref", receipt.PlatformRef,
		)
	}

	rec.Status = domain.StatusSubmitted
	rec.FinishedAt = time.Now().UTC()
	return rec
}

func (p *Pipeline) skipped(rec domain.ProcessedMarket, reason string) domain.ProcessedMarket {
	rec.Status = domain.StatusSkipped
	rec.Reason = reason
	rec.FinishedAt = time.Now().UTC()
	return rec
}

func (p *Pipeline) failed(rec domain.ProcessedMarket, reason string) domain.ProcessedMarket {
	rec.Status = domain.StatusFailed
	rec.Reason = reason
	rec.FinishedAt = time.Now().UTC()
	return rec
}

func validateTrades(trades []domain.Trade) error {
	for _, t := range trades {
		if t.Amount.LessThan(decimal.Zero) {
			return fmt.Errorf("trade with negative amount %s", t.Amount)
		}
	}
	return nil
}
