package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/domain"
)

// SortBy orders market listings. Platforms that lack a sort key fall back
// to their documented default and log the substitution; they never
// silently ignore the request.
type SortBy string

const (
	SortClosingSoonest   SortBy = "closing-soonest"
	SortHighestLiquidity SortBy = "highest-liquidity"
	SortNewest           SortBy = "newest"
)

// MarketPlatform is the uniform capability set one prediction-market
// platform exposes. Reads never mutate external state. PlaceTrade is the
// only write and returns once the platform confirms settlement, within a
// bounded wait; callers must not assume a non-blocking submission is
// already visible in GetPosition.
type MarketPlatform interface {
	// Name identifies the platform in records and logs.
	Name() string

	// OpenMarkets returns up to limit open binary markets in sortBy order.
	OpenMarkets(ctx context.Context, limit int, sortBy SortBy) ([]domain.Market, error)

	// GetMarket fetches one market by platform id. Fails with
	// domain.ErrNotFound for unknown ids and domain.ErrStaleData when
	// resolution data cannot be retrieved.
	GetMarket(ctx context.Context, id string) (domain.Market, error)

	// GetPosition returns the identity's holding in the market, or nil
	// when there is none.
	GetPosition(ctx context.Context, identity string, market domain.Market) (*domain.Position, error)

	// Balance returns the identity's available currency on the platform.
	Balance(ctx context.Context, identity string) (decimal.Decimal, error)

	// PlaceTrade executes one trade and blocks until settled. Fails with
	// domain.ErrInsufficientBalance, domain.ErrTradeRejected, or a
	// domain.TransientError after retries are exhausted.
	PlaceTrade(ctx context.Context, market domain.Market, trade domain.Trade) (domain.TradeReceipt, error)
}
