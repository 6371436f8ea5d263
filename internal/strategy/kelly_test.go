package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidalm/betbench/internal/domain"
)

func testMarket(pYes float64) domain.Market {
	return domain.Market{
		ID:       "m1",
		Platform: "test",
		Question: "Will X happen?",
		Outcomes: [2]domain.Outcome{
			{Name: domain.OutcomeYes, Probability: pYes},
			{Name: domain.OutcomeNo, Probability: 1 - pYes},
		},
		Status: domain.MarketOpen,
	}
}

func defaultParams() Params {
	return Params{
		MaxStake: decimal.NewFromInt(5),
		MinEdge:  0.05,
	}
}

func TestKelly_SizesEvenMoneyBet(t *testing.T) {
	k := NewKelly(defaultParams())

	// edge = (0.9 − 0.5) × 1.0 = 0.4, odds = 1 → f* = 0.4, stake = 0.4 × 10 = 4
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		testMarket(0.5),
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	assert.Equal(t, domain.Buy, trades[0].Type)
	assert.Equal(t, domain.OutcomeYes, trades[0].Outcome)
	assert.True(t, trades[0].Amount.Equal(decimal.NewFromInt(4)), "got %s", trades[0].Amount)
	assert.True(t, trades[0].ExpectedTokens.Equal(decimal.NewFromInt(8)), "got %s", trades[0].ExpectedTokens)
}

func TestKelly_BelowMinEdgeIsNoOp(t *testing.T) {
	k := NewKelly(defaultParams())

	trades, err := k.SizeTrades(
		domain.NewAnswer(0.52, 1.0, ""),
		testMarket(0.5),
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestKelly_ConfidenceScalesEdge(t *testing.T) {
	k := NewKelly(defaultParams())

	// raw edge 0.4, confidence 0.1 → effective 0.04 < MinEdge
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 0.1, ""),
		testMarket(0.5),
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestKelly_FavorsNoSide(t *testing.T) {
	k := NewKelly(defaultParams())

	// answer pYes 0.2 → No at 0.8; market pNo = 0.5 → edge 0.3
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.2, 1.0, ""),
		testMarket(0.5),
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.OutcomeNo, trades[0].Outcome)
}

func TestKelly_MaxStakeCaps(t *testing.T) {
	k := NewKelly(defaultParams())

	// uncapped stake would be 0.4 × 100 = 40
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		testMarket(0.5),
		nil,
		decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Amount.Equal(decimal.NewFromInt(5)), "got %s", trades[0].Amount)
}

func TestKelly_KellyFractionScalesStake(t *testing.T) {
	p := defaultParams()
	p.KellyFraction = 0.5
	k := NewKelly(p)

	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		testMarket(0.5),
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Amount.Equal(decimal.NewFromInt(2)), "half Kelly, got %s", trades[0].Amount)
}

func TestKelly_NetsOutOppositePosition(t *testing.T) {
	k := NewKelly(defaultParams())

	pos := &domain.Position{MarketID: "m1", NoTokens: decimal.NewFromInt(8)}
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		testMarket(0.5),
		pos,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 2, "sell the No tokens, then buy Yes")

	assert.Equal(t, domain.Sell, trades[0].Type)
	assert.Equal(t, domain.OutcomeNo, trades[0].Outcome)
	assert.True(t, trades[0].ExpectedTokens.Equal(decimal.NewFromInt(8)))

	assert.Equal(t, domain.Buy, trades[1].Type)
	assert.Equal(t, domain.OutcomeYes, trades[1].Outcome)
}

func TestKelly_AllowOppositeBetsSkipsNetting(t *testing.T) {
	p := defaultParams()
	p.AllowOppositeBets = true
	k := NewKelly(p)

	pos := &domain.Position{MarketID: "m1", NoTokens: decimal.NewFromInt(8)}
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		testMarket(0.5),
		pos,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.Buy, trades[0].Type)
}

func TestKelly_SameSidePositionNotSold(t *testing.T) {
	k := NewKelly(defaultParams())

	pos := &domain.Position{MarketID: "m1", YesTokens: decimal.NewFromInt(8)}
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		testMarket(0.5),
		pos,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.Buy, trades[0].Type)
}

func TestKelly_RoundsUpToPlatformFloor(t *testing.T) {
	k := NewKelly(defaultParams())

	m := testMarket(0.5)
	m.MinTradeSize = decimal.NewFromInt(1)

	// edge 0.05 → stake 0.5, below the floor; floor 1 fits the caps
	trades, err := k.SizeTrades(
		domain.NewAnswer(0.55, 1.0, ""),
		m,
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Amount.Equal(decimal.NewFromInt(1)), "got %s", trades[0].Amount)
}

func TestKelly_FloorAboveMaxStakeSkipsBuy(t *testing.T) {
	k := NewKelly(defaultParams())

	m := testMarket(0.5)
	m.MinTradeSize = decimal.NewFromInt(20) // above MaxStake 5

	trades, err := k.SizeTrades(
		domain.NewAnswer(0.55, 1.0, ""),
		m,
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestKelly_FeePassedThrough(t *testing.T) {
	k := NewKelly(defaultParams())

	m := testMarket(0.5)
	m.FeeRate = 0.02

	trades, err := k.SizeTrades(
		domain.NewAnswer(0.9, 1.0, ""),
		m,
		nil,
		decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	// 4 × 0.98 / 0.5 = 7.84
	assert.True(t, trades[0].ExpectedTokens.Equal(decimal.RequireFromString("7.84")),
		"got %s", trades[0].ExpectedTokens)
}
