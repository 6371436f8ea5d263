// Package manifold implements the market platform contract against the
// Manifold Markets REST API (https://docs.manifold.markets/api). Manifold
// is a centralized order-book platform: bets fill synchronously, so trade
// settlement is the API acknowledging the fill.
package manifold

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/adapters/rest"
	"github.com/avidalm/betbench/internal/domain"
	"github.com/avidalm/betbench/internal/ports"
)

// PlatformName identifies this adapter in records and configuration.
const PlatformName = "manifold"

const defaultBaseURL = "https://api.manifold.markets"

// Manifold caps at 500 requests per minute per key; stay well under.
const requestsPerSec = 5

// Client implements ports.MarketPlatform for Manifold.
type Client struct {
	rest    *rest.Client
	baseURL string
}

// New builds a client. An empty baseURL uses production; apiKey is
// required for placing bets and reading the balance.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Key " + apiKey
	}
	return &Client{
		rest:    rest.NewClient(requestsPerSec, 5, headers),
		baseURL: baseURL,
	}
}

func (c *Client) Name() string { return PlatformName }

// OpenMarkets lists open binary markets. All three sort keys map directly
// onto Manifold's search API; unknown keys fall back to the API default
// (liquidity) with a debug log, never a silent reorder.
func (c *Client) OpenMarkets(ctx context.Context, limit int, sortBy ports.SortBy) ([]domain.Market, error) {
	sort := "liquidity"
	switch sortBy {
	case ports.SortClosingSoonest:
		sort = "close-date"
	case ports.SortHighestLiquidity:
		sort = "liquidity"
	case ports.SortNewest:
		sort = "newest"
	default:
		slog.Debug("manifold: unsupported sort key, using liquidity", "requested", sortBy)
	}

	url := fmt.Sprintf("%s/v0/search-markets?term=&contractType=BINARY&filter=open&sort=%s&limit=%d",
		c.baseURL, sort, limit)

	var raw []apiMarket
	if err := c.rest.Get(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("manifold.OpenMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(raw))
	for _, rm := range raw {
		m, err := toDomain(rm)
		if err != nil {
			slog.Debug("manifold: skipping unusable market", "id", rm.ID, "err", err)
			continue
		}
		if !m.IsOpen() {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// GetMarket fetches one market by id.
func (c *Client) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	var raw apiMarket
	err := c.rest.Get(ctx, fmt.Sprintf("%s/v0/market/%s", c.baseURL, id), &raw)
	if err != nil {
		var se *rest.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return domain.Market{}, fmt.Errorf("manifold.GetMarket: %s: %w", id, domain.ErrNotFound)
		}
		return domain.Market{}, fmt.Errorf("manifold.GetMarket: %s: %w", id, err)
	}

	m, err := toDomain(raw)
	if err != nil {
		return domain.Market{}, fmt.Errorf("manifold.GetMarket: %w", err)
	}
	return m, nil
}

// GetPosition reads the identity's share totals for the market.
func (c *Client) GetPosition(ctx context.Context, identity string, market domain.Market) (*domain.Position, error) {
	url := fmt.Sprintf("%s/v0/market/%s/positions?userId=%s", c.baseURL, market.ID, identity)

	var metrics []apiContractMetric
	if err := c.rest.Get(ctx, url, &metrics); err != nil {
		return nil, fmt.Errorf("manifold.GetPosition: %w", err)
	}

	for _, metric := range metrics {
		if metric.UserID != identity {
			continue
		}
		pos := &domain.Position{
			MarketID:  market.ID,
			YesTokens: decimal.NewFromFloat(metric.TotalShares["YES"]),
			NoTokens:  decimal.NewFromFloat(metric.TotalShares["NO"]),
		}
		if pos.IsEmpty() {
			return nil, nil
		}
		return pos, nil
	}
	return nil, nil
}

// Balance returns the authenticated user's Mana balance. The identity
// argument must match the key's user; Manifold keys are account-scoped.
func (c *Client) Balance(ctx context.Context, identity string) (decimal.Decimal, error) {
	var me apiUser
	if err := c.rest.Get(ctx, c.baseURL+"/v0/me", &me); err != nil {
		return decimal.Zero, fmt.Errorf("manifold.Balance: %w", err)
	}
	if identity != "" && me.ID != identity {
		return decimal.Zero, fmt.Errorf("manifold.Balance: key belongs to %s, not %s", me.ID, identity)
	}
	return decimal.NewFromFloat(me.Balance), nil
}

// PlaceTrade executes one bet or sale. Manifold fills synchronously, so
// the API response is the settlement confirmation.
func (c *Client) PlaceTrade(ctx context.Context, market domain.Market, trade domain.Trade) (domain.TradeReceipt, error) {
	outcome := "YES"
	if trade.Outcome == domain.OutcomeNo {
		outcome = "NO"
	}

	var (
		resp apiBetResponse
		err  error
	)
	switch trade.Type {
	case domain.Buy:
		body := map[string]any{
			"contractId": market.ID,
			"outcome":    outcome,
			"amount":     trade.Amount.InexactFloat64(),
		}
		err = c.rest.Post(ctx, c.baseURL+"/v0/bet", body, &resp)
	case domain.Sell:
		body := map[string]any{
			"outcome": outcome,
			"shares":  trade.ExpectedTokens.InexactFloat64(),
		}
		err = c.rest.Post(ctx, fmt.Sprintf("%s/v0/market/%s/sell", c.baseURL, market.ID), body, &resp)
	default:
		return domain.TradeReceipt{}, fmt.Errorf("manifold.PlaceTrade: unknown trade type %q", trade.Type)
	}

	if err != nil {
		return domain.TradeReceipt{}, classifyTradeError(err)
	}

	return domain.TradeReceipt{
		ID:          uuid.NewString(),
		PlatformRef: resp.BetID,
		SettledAt:   time.Now().UTC(),
	}, nil
}

// classifyTradeError maps API rejections onto the domain taxonomy:
// 403 with an insufficient-balance body means the account can't cover the
// bet; other 4xx are plain rejections; transport failures stay transient.
func classifyTradeError(err error) error {
	var se *rest.StatusError
	if errors.As(err, &se) {
		if insufficientBalanceBody(se.Body) {
			return fmt.Errorf("manifold.PlaceTrade: %s: %w", se.Body, domain.ErrInsufficientBalance)
		}
		return fmt.Errorf("manifold.PlaceTrade: %s: %w", se.Body, domain.ErrTradeRejected)
	}
	return fmt.Errorf("manifold.PlaceTrade: %w", err)
}

func insufficientBalanceBody(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "insufficient balance") || strings.Contains(lower, "not enough mana")
}
