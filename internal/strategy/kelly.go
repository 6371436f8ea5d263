package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
)

// Kelly sizes trades with a Kelly-criterion fraction of the available
// balance:
//
//	f* = edge / odds
//
// where edge = (myProb − marketProb) × confidence for the outcome the
// answer favors, and odds = 1/marketProb − 1. The stake is capped by
// MaxStake and by the balance, and the calculation ignores its own price
// impact, so it is only accurate for stakes small against the market's
// liquidity.
type Kelly struct {
	params Params
}

// NewKelly builds the strategy. Zero-value params get safe defaults.
func NewKelly(p Params) *Kelly {
	if p.KellyFraction <= 0 || p.KellyFraction > 1 {
		p.KellyFraction = 1
	}
	return &Kelly{params: p}
}

// SizeTrades implements Strategy. All currency arithmetic is fixed-point.
func (k *Kelly) SizeTrades(answer domain.ProbabilisticAnswer, market domain.Market, position *domain.Position, balance decimal.Decimal) ([]domain.Trade, error) {
	outcome := answer.Direction()
	myProb := answer.ProbabilityFor(outcome)
	marketProb := market.ImpliedProbability(outcome)

	edge := (myProb - marketProb) * answer.Confidence
	if edge < k.params.MinEdge {
		return nil, nil
	}

	var trades []domain.Trade

	// Net out an opposing holding first so both outcomes are never held
	// at once unless explicitly allowed.
	if position != nil && !k.params.AllowOppositeBets {
		opposite := domain.OppositeOutcome(outcome)
		held := position.TokensFor(opposite)
		if held.Sign() > 0 {
			sell, err := domain.NewSell(opposite, held, market.ImpliedProbability(opposite))
			if err != nil {
				return nil, fmt.Errorf("strategy.Kelly: net out %s: %w", opposite, err)
			}
			trades = append(trades, sell)
		}
	}

	stake := k.stake(edge, marketProb, balance)
	if stake.Sign() < 0 {
		// Contract violation, not a platform condition.
		return nil, fmt.Errorf("strategy.Kelly: negative stake %s", stake)
	}

	// Round up to the platform floor when that still respects the caps;
	// otherwise skip the buy entirely (the platform would reject it).
	if stake.LessThan(market.MinTradeSize) {
		floor := market.MinTradeSize
		if floor.LessThanOrEqual(k.maxStake()) && floor.LessThanOrEqual(balance) && stake.Sign() > 0 {
			stake = floor
		} else {
			return trades, nil
		}
	}
	if stake.Sign() == 0 {
		return trades, nil
	}

	buy, err := domain.NewBuy(outcome, stake, marketProb, market.FeeRate)
	if err != nil {
		return nil, fmt.Errorf("strategy.Kelly: size buy: %w", err)
	}
	return append(trades, buy), nil
}

// stake computes min(kellyFraction × f* × balance, maxStake, balance).
func (k *Kelly) stake(edge, marketProb float64, balance decimal.Decimal) decimal.Decimal {
	if marketProb <= 0 {
		marketProb = 1e-10
	}
	odds := 1/marketProb - 1
	if odds <= 0 {
		return decimal.Zero
	}
	frac := edge / odds * k.params.KellyFraction
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	stake := balance.Mul(decimal.NewFromFloat(frac)).Round(4)
	if stake.GreaterThan(k.maxStake()) {
		stake = k.maxStake()
	}
	if stake.GreaterThan(balance) {
		stake = balance
	}
	return stake
}

func (k *Kelly) maxStake() decimal.Decimal {
	if k.params.MaxStake.Sign() <= 0 {
		return decimal.NewFromInt(10)
	}
	return k.params.MaxStake
}
