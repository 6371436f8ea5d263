package omen

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
)

// Omen outcome ordering: index 0 is Yes, index 1 is No.
const (
	outcomeIndexYes = 0
	outcomeIndexNo  = 1
)

// invalidAnswer is reality.eth's marker for an unanswerable question.
var invalidAnswer = strings.Repeat("f", 64)

// toDomain converts a subgraph market into the platform-neutral form.
// Markets with a reported but not yet finalized answer are stale: they
// carry no usable probability and no usable ground truth.
func toDomain(sm subgraphMarket) (domain.Market, error) {
	if len(sm.Outcomes) != 2 || len(sm.OutcomeTokenMarginalPrices) != 2 {
		return domain.Market{}, fmt.Errorf("omen: market %s is not binary", sm.ID)
	}

	pYes, err := strconv.ParseFloat(sm.OutcomeTokenMarginalPrices[outcomeIndexYes], 64)
	if err != nil {
		return domain.Market{}, fmt.Errorf("omen: market %s: parse price: %w", sm.ID, err)
	}
	pNo, err := strconv.ParseFloat(sm.OutcomeTokenMarginalPrices[outcomeIndexNo], 64)
	if err != nil {
		return domain.Market{}, fmt.Errorf("omen: market %s: parse price: %w", sm.ID, err)
	}

	liquidity, _ := decimal.NewFromString(sm.ScaledLiquidityParameter)

	m := domain.Market{
		ID:       sm.ID,
		Platform: PlatformName,
		Question: sm.Title,
		Outcomes: [2]domain.Outcome{
			{Name: domain.OutcomeYes, Probability: pYes},
			{Name: domain.OutcomeNo, Probability: pNo},
		},
		CloseTime:    parseUnixSeconds(sm.OpeningTimestamp),
		Liquidity:    liquidity,
		FeeRate:      parseFeeWei(sm.Fee),
		MinTradeSize: decimal.Zero, // the AMM has no protocol floor
	}

	switch {
	case sm.CurrentAnswer != "":
		finalized := parseUnixSeconds(sm.AnswerFinalizedTimestamp)
		if sm.IsPendingArbitration || finalized.IsZero() || time.Now().Before(finalized) {
			return domain.Market{}, fmt.Errorf("omen: market %s answer not final: %w",
				sm.ID, domain.ErrStaleData)
		}
		res, err := toResolution(sm.CurrentAnswer)
		if err != nil {
			return domain.Market{}, fmt.Errorf("omen: market %s: %w", sm.ID, err)
		}
		m.Status = domain.MarketResolved
		m.Resolution = &res
	case !m.CloseTime.IsZero() && time.Now().After(m.CloseTime):
		m.Status = domain.MarketClosed
	default:
		m.Status = domain.MarketOpen
	}
	return m, nil
}

// toResolution decodes a reality.eth bytes32 answer.
func toResolution(answer string) (domain.Resolution, error) {
	hex := strings.TrimPrefix(strings.ToLower(answer), "0x")
	if hex == invalidAnswer {
		return domain.ResolutionCancel, nil
	}
	idx, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return "", fmt.Errorf("unusable answer %q: %w", answer, domain.ErrStaleData)
	}
	switch idx.Int64() {
	case outcomeIndexYes:
		return domain.ResolutionYes, nil
	case outcomeIndexNo:
		return domain.ResolutionNo, nil
	}
	return "", fmt.Errorf("unusable answer %q: %w", answer, domain.ErrStaleData)
}

func outcomeIndex(outcome string) int64 {
	if outcome == domain.OutcomeNo {
		return outcomeIndexNo
	}
	return outcomeIndexYes
}

func parseUnixSeconds(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// parseFeeWei converts the subgraph's wei-denominated fee fraction
// (2e16 = 2%) into a plain float fraction.
func parseFeeWei(s string) float64 {
	fee, ok := new(big.Float).SetString(s)
	if !ok {
		return 0
	}
	frac, _ := new(big.Float).Quo(fee, big.NewFloat(1e18)).Float64()
	return frac
}

// toWei converts a collateral amount into 18-decimal wei.
func toWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(18).BigInt()
}

// fromWei converts 18-decimal wei into a collateral amount.
func fromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}
