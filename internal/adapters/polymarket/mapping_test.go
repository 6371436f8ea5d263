package polymarket

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidalm/betbench/internal/domain"
)

func openGammaMarket() gammaMarket {
	return gammaMarket{
		ConditionID:   "0xcond",
		Question:      "Will X happen?",
		OutcomePrices: `["0.45", "0.55"]`,
		EndDateISO:    "2027-06-30",
		Liquidity:     "12500.50",
		Active:        true,
		OrderMinSize:  5,
		TakerBaseFee:  0.02,
	}
}

func TestToDomain_Open(t *testing.T) {
	m, err := toDomain(openGammaMarket())
	require.NoError(t, err)

	assert.Equal(t, "0xcond", m.ID)
	assert.Equal(t, PlatformName, m.Platform)
	assert.Equal(t, domain.MarketOpen, m.Status)
	assert.InDelta(t, 0.45, m.PYes(), 1e-9)
	assert.InDelta(t, 0.55, m.PNo(), 1e-9)
	assert.True(t, m.Liquidity.Equal(decimal.RequireFromString("12500.50")))
	assert.True(t, m.MinTradeSize.Equal(decimal.NewFromInt(5)))
	assert.InDelta(t, 0.02, m.FeeRate, 1e-9)
	assert.Equal(t, 2027, m.CloseTime.Year())
	assert.NoError(t, m.Validate())
}

func TestToDomain_MinSizeDefaults(t *testing.T) {
	gm := openGammaMarket()
	gm.OrderMinSize = 0
	m, err := toDomain(gm)
	require.NoError(t, err)
	assert.True(t, m.MinTradeSize.Equal(decimal.NewFromInt(1)))
}

func TestToDomain_ResolvedFromPinnedPrices(t *testing.T) {
	gm := openGammaMarket()
	gm.Closed = true
	gm.UMAResolutionStatus = "resolved"
	gm.OutcomePrices = `["1", "0"]`

	m, err := toDomain(gm)
	require.NoError(t, err)
	require.Equal(t, domain.MarketResolved, m.Status)

	yes, ok := m.ResolvedYes()
	require.True(t, ok)
	assert.True(t, yes)
}

func TestToDomain_ResolvedNo(t *testing.T) {
	gm := openGammaMarket()
	gm.Closed = true
	gm.UMAResolutionStatus = "resolved"
	gm.OutcomePrices = `["0", "1"]`

	m, err := toDomain(gm)
	require.NoError(t, err)
	yes, ok := m.ResolvedYes()
	require.True(t, ok)
	assert.False(t, yes)
}

func TestToDomain_InactiveIsClosed(t *testing.T) {
	gm := openGammaMarket()
	gm.Active = false
	m, err := toDomain(gm)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketClosed, m.Status)
}

func TestParseOutcomePrices(t *testing.T) {
	pYes, pNo, err := parseOutcomePrices(`["0.45", "0.55"]`)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, pYes, 1e-9)
	assert.InDelta(t, 0.55, pNo, 1e-9)
}

func TestParseOutcomePrices_Invalid(t *testing.T) {
	_, _, err := parseOutcomePrices("")
	assert.Error(t, err, "empty")

	_, _, err = parseOutcomePrices(`["0.45"]`)
	assert.Error(t, err, "one price")

	_, _, err = parseOutcomePrices(`not json`)
	assert.Error(t, err, "not json")
}
