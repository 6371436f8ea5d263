package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
)

// toDomain converts a Gamma market into the platform-neutral form.
func toDomain(gm gammaMarket) (domain.Market, error) {
	pYes, pNo, err := parseOutcomePrices(gm.OutcomePrices)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket: market %s: %w", gm.ConditionID, err)
	}

	liquidity, _ := decimal.NewFromString(gm.Liquidity)

	minSize := gm.OrderMinSize
	if minSize <= 0 {
		minSize = 1 // CLOB default minimum order, USDC
	}

	m := domain.Market{
		ID:       gm.ConditionID,
		Platform: PlatformName,
		Question: gm.Question,
		Outcomes: [2]domain.Outcome{
			{Name: domain.OutcomeYes, Probability: pYes},
			{Name: domain.OutcomeNo, Probability: pNo},
		},
		Liquidity:    liquidity,
		FeeRate:      gm.TakerBaseFee,
		MinTradeSize: decimal.NewFromFloat(minSize),
	}

	if gm.EndDateISO != "" {
		if t, err := time.Parse("2006-01-02", gm.EndDateISO); err == nil {
			m.CloseTime = t.UTC()
		} else if t, err := time.Parse(time.RFC3339, gm.EndDateISO); err == nil {
			m.CloseTime = t.UTC()
		}
	}

	switch {
	case gm.Closed && gm.UMAResolutionStatus == "resolved":
		res := resolutionFromPrices(pYes)
		m.Status = domain.MarketResolved
		m.Resolution = &res
	case gm.Closed || !gm.Active:
		m.Status = domain.MarketClosed
	default:
		m.Status = domain.MarketOpen
	}
	return m, nil
}

// parseOutcomePrices decodes Gamma's stringified price pair.
func parseOutcomePrices(raw string) (pYes, pNo float64, err error) {
	if raw == "" {
		return 0, 0, fmt.Errorf("empty outcomePrices")
	}
	var prices []string
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		return 0, 0, fmt.Errorf("parse outcomePrices %q: %w", raw, err)
	}
	if len(prices) != 2 {
		return 0, 0, fmt.Errorf("want 2 outcome prices, got %d", len(prices))
	}
	pYes, err = strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0, 0, err
	}
	pNo, err = strconv.ParseFloat(prices[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return pYes, pNo, nil
}

// resolutionFromPrices reads the settled price: resolved markets pin the
// winning outcome's price to 1.
func resolutionFromPrices(pYes float64) domain.Resolution {
	if pYes >= 0.5 {
		return domain.ResolutionYes
	}
	return domain.ResolutionNo
}
