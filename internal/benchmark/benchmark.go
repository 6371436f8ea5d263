// Package benchmark runs agents over a fixed set of resolved markets and
// computes comparable accuracy/calibration/cost metrics per agent.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avidalm/betbench/internal/domain"
	"github.com/avidalm/betbench/internal/ports"
)

// CostReporter is optionally implemented by agents that can report the
// monetary cost of their last answer (LLM token spend and the like).
type CostReporter interface {
	LastCost() float64
}

// Benchmarker runs N agents over a fixed market set M, caching predictions
// keyed by (agent name, normalized question). It owns the cache exclusively
// for the duration of a run; concurrent runs against the same cache path
// must be prevented by the caller.
type Benchmarker struct {
	agents  []ports.Agent
	markets []domain.Market
	cache   ports.PredictionCache
}

// New builds a benchmarker. Agent names must be unique, and every market
// must carry a usable ground truth; cancelled or unresolved markets are an
// error here, not a silent filter — use LoadResolvedMarkets to build the set.
func New(agents []ports.Agent, markets []domain.Market, cache ports.PredictionCache) (*Benchmarker, error) {
	names := make(map[string]bool, len(agents))
	for _, a := range agents {
		if names[a.Name()] {
			return nil, fmt.Errorf("benchmark.New: duplicate agent name %q", a.Name())
		}
		names[a.Name()] = true
	}
	for _, m := range markets {
		if _, ok := m.ResolvedYes(); !ok {
			return nil, fmt.Errorf("benchmark.New: market %s has no usable resolution", m.ID)
		}
	}
	return &Benchmarker{agents: agents, markets: markets, cache: cache}, nil
}

// LoadResolvedMarkets fetches up to limit markets from the platform and
// keeps only those with a usable ground truth. Markets whose resolution is
// unavailable (stale) or cancelled are excluded here, at load, so metrics
// are never computed over unresolvable markets.
func LoadResolvedMarkets(ctx context.Context, platform ports.MarketPlatform, ids []string) ([]domain.Market, error) {
	var markets []domain.Market
	for _, id := range ids {
		m, err := platform.GetMarket(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrStaleData) {
				slog.Warn("benchmark: resolution unavailable, market excluded", "market", id)
				continue
			}
			return nil, fmt.Errorf("benchmark.LoadResolvedMarkets: %s: %w", id, err)
		}
		if _, ok := m.ResolvedYes(); !ok {
			slog.Warn("benchmark: market not resolvable, excluded", "market", id, "status", m.Status)
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// AddPrediction stores (or overwrites) the cache entry for the agent and
// question.
func (b *Benchmarker) AddPrediction(ctx context.Context, agentName, question string, p domain.Prediction) error {
	return b.cache.Put(ctx, agentName, domain.NormalizeQuestion(question), p)
}

// GetPrediction returns the cached prediction for (agent, question).
func (b *Benchmarker) GetPrediction(ctx context.Context, agentName, question string) (domain.Prediction, bool, error) {
	return b.cache.Get(ctx, agentName, domain.NormalizeQuestion(question))
}

// RunAgents produces one prediction per (agent, market) pair. With
// useCache, existing entries are reused and the agent is not invoked at
// all for them. Fresh answers are timed wall-clock and cached immediately,
// abstentions included, so interrupted runs resume where they stopped.
func (b *Benchmarker) RunAgents(ctx context.Context, useCache bool) error {
	for _, agent := range b.agents {
		fresh := 0
		for _, m := range b.markets {
			if useCache {
				if _, ok, err := b.GetPrediction(ctx, agent.Name(), m.Question); err != nil {
					return fmt.Errorf("benchmark.RunAgents: cache read: %w", err)
				} else if ok {
					continue
				}
			}

			start := time.Now()
			result := agent.Answer(ctx, m)
			pred := domain.Prediction{
				Answer:  result.Answer, // nil for abstained/errored
				Latency: time.Since(start),
			}
			if reporter, ok := agent.(CostReporter); ok {
				pred.Cost = reporter.LastCost()
			}
			if result.Status == domain.Errored {
				slog.Warn("benchmark: agent errored, cached as unanswered",
					"agent", agent.Name(), "market", m.ID, "err", result.Err)
			}

			if err := b.AddPrediction(ctx, agent.Name(), m.Question, pred); err != nil {
				return fmt.Errorf("benchmark.RunAgents: cache write: %w", err)
			}
			fresh++
		}
		slog.Info("benchmark: agent complete",
			"agent", agent.Name(), "fresh", fresh, "cached", len(b.markets)-fresh)
	}
	return nil
}

// Markets returns the benchmark's market set.
func (b *Benchmarker) Markets() []domain.Market { return b.markets }
