package domain

import "github.com/shopspring/decimal"

// Position is an identity's current outcome-token holding in one market.
// Created by the first trade, updated by every later trade; always read
// fresh from the platform before sizing new trades.
type Position struct {
	MarketID  string
	YesTokens decimal.Decimal
	NoTokens  decimal.Decimal
}

// TokensFor returns the held token amount for the given outcome.
func (p Position) TokensFor(outcome string) decimal.Decimal {
	if outcome == OutcomeYes {
		return p.YesTokens
	}
	return p.NoTokens
}

// IsEmpty reports whether nothing is held on either side.
func (p Position) IsEmpty() bool {
	return p.YesTokens.Sign() <= 0 && p.NoTokens.Sign() <= 0
}
