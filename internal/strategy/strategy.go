package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
)

// Strategy turns a belief into a concrete trade list. Implementations are
// pure: same inputs, same trades, no I/O.
type Strategy interface {
	SizeTrades(answer domain.ProbabilisticAnswer, market domain.Market, position *domain.Position, balance decimal.Decimal) ([]domain.Trade, error)
}

// Params are the sizing knobs shared by strategies.
type Params struct {
	// MaxStake caps the currency spent on one market.
	MaxStake decimal.Decimal
	// MinEdge is the minimum confidence-weighted divergence between the
	// agent's belief and the market's implied probability. Below it the
	// strategy returns no trades, which is a deliberate no-op.
	MinEdge float64
	// KellyFraction scales the full-Kelly stake down (0 < f <= 1).
	KellyFraction float64
	// AllowOppositeBets permits holding both outcomes at once. When false
	// (the default) the strategy nets out: it sells held opposing tokens
	// before, or instead of, buying the new side.
	AllowOppositeBets bool
}
