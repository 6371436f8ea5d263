package manifold

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
)

// minimumBetMana is Manifold's trade floor: bets under 1 Mana are rejected.
var minimumBetMana = decimal.NewFromInt(1)

// toDomain converts a wire market into the platform-neutral form.
// Returns domain.ErrStaleData when the market claims resolution but the
// resolution field is unusable (e.g. MKT partial resolutions).
func toDomain(m apiMarket) (domain.Market, error) {
	if m.OutcomeType != "BINARY" {
		return domain.Market{}, fmt.Errorf("manifold: market %s is %s, not binary", m.ID, m.OutcomeType)
	}

	out := domain.Market{
		ID:       m.ID,
		Platform: PlatformName,
		Question: m.Question,
		Outcomes: [2]domain.Outcome{
			{Name: domain.OutcomeYes, Probability: m.Probability},
			{Name: domain.OutcomeNo, Probability: 1 - m.Probability},
		},
		CloseTime:    time.UnixMilli(m.CloseTime).UTC(),
		Liquidity:    decimal.NewFromFloat(m.TotalLiquidity),
		FeeRate:      0, // Manifold charges no trade fee
		MinTradeSize: minimumBetMana,
	}

	switch {
	case m.IsResolved:
		res, err := toResolution(m.Resolution)
		if err != nil {
			return domain.Market{}, fmt.Errorf("manifold: market %s: %w", m.ID, err)
		}
		out.Status = domain.MarketResolved
		out.Resolution = &res
	case time.Now().After(out.CloseTime):
		out.Status = domain.MarketClosed
	default:
		out.Status = domain.MarketOpen
	}
	return out, nil
}

func toResolution(r string) (domain.Resolution, error) {
	switch r {
	case "YES":
		return domain.ResolutionYes, nil
	case "NO":
		return domain.ResolutionNo, nil
	case "CANCEL":
		return domain.ResolutionCancel, nil
	}
	// MKT (partial) and unknown values carry no binary ground truth.
	return "", fmt.Errorf("unusable resolution %q: %w", r, domain.ErrStaleData)
}
