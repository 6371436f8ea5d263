package ports

import (
	"context"

	"github.com/avidalm/betbench/internal/domain"
)

// Agent is a pluggable prediction unit. Agents are pure with respect to
// the pipeline's data model; LLM calls, web search, or other I/O are the
// agent's private concern.
type Agent interface {
	// Name must be unique within a benchmark run.
	Name() string

	// Verify decides eligibility (liquidity floors, excluded categories).
	// False skips the market; it is not an error.
	Verify(ctx context.Context, market domain.Market) (bool, error)

	// Answer produces the agent's belief, an explicit abstention, or an
	// error. Errors are contained at the per-market boundary.
	Answer(ctx context.Context, market domain.Market) domain.AnswerResult
}

// TradeBuilder is optionally implemented by agents that override the
// default betting strategy with their own sizing.
type TradeBuilder interface {
	BuildTrades(ctx context.Context, market domain.Market, answer domain.ProbabilisticAnswer, position *domain.Position) ([]domain.Trade, error)
}
