// Package polymarket implements the market platform contract against the
// Polymarket APIs: Gamma for market metadata and resolutions, the data
// API for positions, and the CLOB for balances and order submission.
// CLOB orders are accepted before they are matched, so PlaceTrade polls
// the order status until it settles or the bounded wait expires.
package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/adapters/rest"
	"github.com/avidalm/betbench/internal/domain"
	"github.com/avidalm/betbench/internal/ports"
)

// PlatformName identifies this adapter in records and configuration.
const PlatformName = "polymarket"

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultDataBase  = "https://data-api.polymarket.com"

	// Gamma /markets: 300/10s documented; stay at 60%.
	gammaRatePerSec = 18
	clobRatePerSec  = 40

	settlePollInterval = 2 * time.Second
)

// Client implements ports.MarketPlatform for Polymarket.
type Client struct {
	gamma         *rest.Client
	clob          *rest.Client
	gammaBase     string
	clobBase      string
	dataBase      string
	settleTimeout time.Duration
}

// New builds a client. Empty base URLs use production. The apiKey is the
// CLOB L2 credential used for order submission and balance reads.
func New(gammaBase, clobBase, apiKey string, settleTimeout time.Duration) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if settleTimeout <= 0 {
		settleTimeout = 90 * time.Second
	}
	clobHeaders := map[string]string{}
	if apiKey != "" {
		clobHeaders["POLY-API-KEY"] = apiKey
	}
	return &Client{
		gamma:         rest.NewClient(gammaRatePerSec, 10, nil),
		clob:          rest.NewClient(clobRatePerSec, 10, clobHeaders),
		gammaBase:     gammaBase,
		clobBase:      clobBase,
		dataBase:      defaultDataBase,
		settleTimeout: settleTimeout,
	}
}

func (c *Client) Name() string { return PlatformName }

// OpenMarkets lists open binary markets from Gamma. Gamma can order by
// end date and liquidity; the "newest" key is unsupported and falls back
// to the documented default (end date ascending), logged, never silent.
func (c *Client) OpenMarkets(ctx context.Context, limit int, sortBy ports.SortBy) ([]domain.Market, error) {
	order := "endDate&ascending=true"
	switch sortBy {
	case ports.SortClosingSoonest:
		// default
	case ports.SortHighestLiquidity:
		order = "liquidity&ascending=false"
	default:
		slog.Debug("polymarket: unsupported sort key, using endDate", "requested", sortBy)
	}

	url := fmt.Sprintf("%s/markets?closed=false&active=true&order=%s&limit=%d", c.gammaBase, order, limit)

	var raw []gammaMarket
	if err := c.gamma.Get(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("polymarket.OpenMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(raw))
	for _, gm := range raw {
		m, err := toDomain(gm)
		if err != nil {
			slog.Debug("polymarket: skipping unusable market", "id", gm.ConditionID, "err", err)
			continue
		}
		if !m.IsOpen() {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// GetMarket fetches one market by condition id. A closed market whose UMA
// resolution has not landed yet surfaces as stale so benchmark loading
// can exclude it.
func (c *Client) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	url := fmt.Sprintf("%s/markets?condition_ids=%s", c.gammaBase, id)

	var raw []gammaMarket
	if err := c.gamma.Get(ctx, url, &raw); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket.GetMarket: %s: %w", id, err)
	}
	if len(raw) == 0 {
		return domain.Market{}, fmt.Errorf("polymarket.GetMarket: %s: %w", id, domain.ErrNotFound)
	}

	gm := raw[0]
	if gm.Closed && gm.UMAResolutionStatus != "resolved" {
		return domain.Market{}, fmt.Errorf("polymarket.GetMarket: %s: uma status %q: %w",
			id, gm.UMAResolutionStatus, domain.ErrStaleData)
	}

	m, err := toDomain(gm)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket.GetMarket: %w", err)
	}
	return m, nil
}

// GetPosition reads the wallet's outcome-token holdings from the data API.
func (c *Client) GetPosition(ctx context.Context, identity string, market domain.Market) (*domain.Position, error) {
	url := fmt.Sprintf("%s/positions?user=%s&market=%s", c.dataBase, identity, market.ID)

	var rows []dataPosition
	if err := c.gamma.Get(ctx, url, &rows); err != nil {
		return nil, fmt.Errorf("polymarket.GetPosition: %w", err)
	}

	pos := &domain.Position{MarketID: market.ID}
	for _, row := range rows {
		if row.ConditionID != market.ID {
			continue
		}
		switch row.Outcome {
		case domain.OutcomeYes:
			pos.YesTokens = pos.YesTokens.Add(decimal.NewFromFloat(row.Size))
		case domain.OutcomeNo:
			pos.NoTokens = pos.NoTokens.Add(decimal.NewFromFloat(row.Size))
		}
	}
	if pos.IsEmpty() {
		return nil, nil
	}
	return pos, nil
}

// Balance returns the wallet's available USDC collateral on the CLOB.
func (c *Client) Balance(ctx context.Context, identity string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/balance-allowance?asset_type=COLLATERAL&signature_type=0&address=%s", c.clobBase, identity)

	var resp balanceResponse
	if err := c.clob.Get(ctx, url, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("polymarket.Balance: %w", err)
	}

	raw, err := decimal.NewFromString(resp.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("polymarket.Balance: parse %q: %w", resp.Balance, err)
	}
	// USDC carries 6 decimals on chain.
	return raw.Shift(-6), nil
}

// PlaceTrade submits a market order to the CLOB and blocks until it is
// matched or the settle timeout expires. Acceptance is not settlement:
// an order can sit "live" briefly before matching.
func (c *Client) PlaceTrade(ctx context.Context, market domain.Market, trade domain.Trade) (domain.TradeReceipt, error) {
	req := orderRequest{
		Market:    market.ID,
		Side:      string(trade.Type),
		Outcome:   trade.Outcome,
		Amount:    trade.Amount.InexactFloat64(),
		OrderType: "FOK",
	}

	var resp orderResponse
	if err := c.clob.Post(ctx, c.clobBase+"/order", req, &resp); err != nil {
		return domain.TradeReceipt{}, classifyOrderError(err)
	}
	if !resp.Success {
		return domain.TradeReceipt{}, classifyRejection(resp.Error)
	}

	settledAt, err := c.waitSettled(ctx, resp.OrderID, resp.Status)
	if err != nil {
		return domain.TradeReceipt{}, err
	}

	return domain.TradeReceipt{
		ID:          uuid.NewString(),
		PlatformRef: resp.OrderID,
		SettledAt:   settledAt,
	}, nil
}

// waitSettled polls the order until the CLOB reports it matched.
func (c *Client) waitSettled(ctx context.Context, orderID, status string) (time.Time, error) {
	if status == "matched" {
		return time.Now().UTC(), nil
	}

	deadline := time.Now().Add(c.settleTimeout)
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return time.Time{}, fmt.Errorf("polymarket.PlaceTrade: settlement wait: %w", ctx.Err())
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return time.Time{}, domain.Transient("polymarket.PlaceTrade",
				fmt.Errorf("order %s not settled within %s", orderID, c.settleTimeout))
		}

		var resp orderResponse
		if err := c.clob.Get(ctx, fmt.Sprintf("%s/data/order/%s", c.clobBase, orderID), &resp); err != nil {
			slog.Warn("polymarket: settlement poll failed", "order", orderID, "err", err)
			continue
		}
		switch resp.Status {
		case "matched":
			return time.Now().UTC(), nil
		case "unmatched", "cancelled":
			return time.Time{}, fmt.Errorf("polymarket.PlaceTrade: order %s %s: %w",
				orderID, resp.Status, domain.ErrTradeRejected)
		}
	}
}

func classifyOrderError(err error) error {
	var se *rest.StatusError
	if errors.As(err, &se) {
		return classifyRejection(se.Body)
	}
	return fmt.Errorf("polymarket.PlaceTrade: %w", err)
}

func classifyRejection(msg string) error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "not enough balance") || strings.Contains(lower, "allowance") {
		return fmt.Errorf("polymarket.PlaceTrade: %s: %w", msg, domain.ErrInsufficientBalance)
	}
	return fmt.Errorf("polymarket.PlaceTrade: %s: %w", msg, domain.ErrTradeRejected)
}
