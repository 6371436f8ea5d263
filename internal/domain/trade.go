package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeType is the direction of a trade.
type TradeType string

const (
	Buy  TradeType = "BUY"
	Sell TradeType = "SELL"
)

// Trade is one sized order against a market: spend (or receive) Amount of
// the platform currency on the given outcome. Immutable once constructed.
type Trade struct {
	Type    TradeType
	Outcome string
	// Amount is the currency stake, always positive; Type carries the
	// direction. Fixed-point so repeated partial trades never drift.
	Amount decimal.Decimal
	// ExpectedTokens is the fee-adjusted outcome-token amount the trade
	// should yield (buys) or surrender (sells) at the quoted price.
	ExpectedTokens decimal.Decimal
}

// NewBuy sizes a buy of `amount` currency on an outcome quoted at `price`,
// with `feeRate` taken off the stake before tokens are bought.
func NewBuy(outcome string, amount decimal.Decimal, price, feeRate float64) (Trade, error) {
	tokens, err := tokensAt(amount, price, feeRate)
	if err != nil {
		return Trade{}, err
	}
	return Trade{Type: Buy, Outcome: outcome, Amount: amount, ExpectedTokens: tokens}, nil
}

// NewSell sizes a sale of `tokens` outcome tokens quoted at `price`,
// returning the currency value received. Sells pay no entry fee.
func NewSell(outcome string, tokens decimal.Decimal, price float64) (Trade, error) {
	if price <= 0 || price > 1 {
		return Trade{}, fmt.Errorf("domain.NewSell: invalid price %v", price)
	}
	if tokens.Sign() <= 0 {
		return Trade{}, fmt.Errorf("domain.NewSell: non-positive token amount %s", tokens)
	}
	amount := tokens.Mul(decimal.NewFromFloat(price)).Round(6)
	return Trade{Type: Sell, Outcome: outcome, Amount: amount, ExpectedTokens: tokens}, nil
}

func tokensAt(amount decimal.Decimal, price, feeRate float64) (decimal.Decimal, error) {
	if price <= 0 || price > 1 {
		return decimal.Zero, fmt.Errorf("domain: invalid price %v", price)
	}
	if feeRate < 0 || feeRate >= 1 {
		return decimal.Zero, fmt.Errorf("domain: invalid fee rate %v", feeRate)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("domain: non-positive amount %s", amount)
	}
	net := amount.Mul(decimal.NewFromFloat(1 - feeRate))
	return net.Div(decimal.NewFromFloat(price)).Round(6), nil
}

// TradeReceipt is the platform's confirmation of a settled trade.
// PlaceTrade returns it only once the platform confirms settlement,
// not merely submission.
type TradeReceipt struct {
	ID          string // local identifier
	PlatformRef string // order id / transaction hash
	SettledAt   time.Time
}

// ExecutedTrade pairs a trade with its settlement receipt.
type ExecutedTrade struct {
	Trade   Trade
	Receipt TradeReceipt
}
