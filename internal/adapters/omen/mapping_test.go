package omen

import (
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidalm/betbench/internal/domain"
)

func openSubgraphMarket() subgraphMarket {
	return subgraphMarket{
		ID:                         "0xfpmm",
		Title:                      "Will X happen?",
		Outcomes:                   []string{"Yes", "No"},
		OutcomeTokenMarginalPrices: []string{"0.62", "0.38"},
		Fee:                        "20000000000000000", // 2%
		OpeningTimestamp:           fmt.Sprintf("%d", time.Now().Add(48*time.Hour).Unix()),
		ScaledLiquidityParameter:   "314.5",
	}
}

func TestToDomain_OpenMarket(t *testing.T) {
	m, err := toDomain(openSubgraphMarket())
	require.NoError(t, err)

	assert.Equal(t, "0xfpmm", m.ID)
	assert.Equal(t, PlatformName, m.Platform)
	assert.Equal(t, domain.MarketOpen, m.Status)
	assert.InDelta(t, 0.62, m.PYes(), 1e-9)
	assert.InDelta(t, 0.38, m.PNo(), 1e-9)
	assert.InDelta(t, 0.02, m.FeeRate, 1e-9)
	assert.True(t, m.Liquidity.Equal(decimal.RequireFromString("314.5")))
	assert.NoError(t, m.Validate())
}

func TestToDomain_RejectsNonBinary(t *testing.T) {
	sm := openSubgraphMarket()
	sm.Outcomes = []string{"A", "B", "C"}
	sm.OutcomeTokenMarginalPrices = []string{"0.3", "0.3", "0.4"}
	_, err := toDomain(sm)
	assert.Error(t, err)
}

func TestToDomain_PastOpeningIsClosed(t *testing.T) {
	sm := openSubgraphMarket()
	sm.OpeningTimestamp = fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix())
	m, err := toDomain(sm)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketClosed, m.Status)
}

func TestToDomain_FinalizedAnswerResolves(t *testing.T) {
	sm := openSubgraphMarket()
	sm.CurrentAnswer = "0x0000000000000000000000000000000000000000000000000000000000000000"
	sm.AnswerFinalizedTimestamp = fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix())

	m, err := toDomain(sm)
	require.NoError(t, err)
	require.Equal(t, domain.MarketResolved, m.Status)

	yes, ok := m.ResolvedYes()
	require.True(t, ok)
	assert.True(t, yes, "answer index 0 is Yes")
}

func TestToDomain_PendingArbitrationIsStale(t *testing.T) {
	sm := openSubgraphMarket()
	sm.CurrentAnswer = "0x0000000000000000000000000000000000000000000000000000000000000001"
	sm.AnswerFinalizedTimestamp = fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix())
	sm.IsPendingArbitration = true

	_, err := toDomain(sm)
	assert.ErrorIs(t, err, domain.ErrStaleData)
}

func TestToDomain_UnfinalizedAnswerIsStale(t *testing.T) {
	sm := openSubgraphMarket()
	sm.CurrentAnswer = "0x0000000000000000000000000000000000000000000000000000000000000001"
	sm.AnswerFinalizedTimestamp = fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix())

	_, err := toDomain(sm)
	assert.ErrorIs(t, err, domain.ErrStaleData)
}

func TestToResolution(t *testing.T) {
	res, err := toResolution("0x" + strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionYes, res)

	res, err = toResolution("0x" + strings.Repeat("0", 63) + "1")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionNo, res)

	res, err = toResolution("0x" + strings.Repeat("f", 64))
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionCancel, res, "reality.eth invalid marker voids the market")

	_, err = toResolution("0x" + strings.Repeat("0", 63) + "7")
	assert.ErrorIs(t, err, domain.ErrStaleData)
}

func TestWeiConversions(t *testing.T) {
	amount := decimal.RequireFromString("1.5")
	wei := toWei(amount)
	assert.Equal(t, "1500000000000000000", wei.String())
	assert.True(t, fromWei(wei).Equal(amount))

	assert.True(t, fromWei(big.NewInt(0)).IsZero())
}

func TestParseFeeWei(t *testing.T) {
	assert.InDelta(t, 0.02, parseFeeWei("20000000000000000"), 1e-9)
	assert.Equal(t, 0.0, parseFeeWei(""))
	assert.Equal(t, 0.0, parseFeeWei("garbage"))
}
