// Package omen implements the market platform contract against Omen on
// Gnosis Chain. Markets are FixedProductMarketMaker AMM contracts with
// wxDAI collateral; metadata and resolutions come from the Omen subgraph,
// trades and balances go through the chain. A trade settles when its
// transaction is mined, so settlement latency here is real chain latency.
package omen

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avidalm/betbench/internal/adapters/rest"
	"github.com/avidalm/betbench/internal/domain"
	"github.com/avidalm/betbench/internal/ports"
)

// PlatformName identifies this adapter in records and configuration.
const PlatformName = "omen"

const (
	defaultSubgraphURL = "https://api.thegraph.com/subgraphs/name/protofire/omen-xdai"

	graphRatePerSec = 10

	// 1% slippage tolerance on AMM quotes
	slippageNum   = 99
	slippageDenom = 100

	gasPriceUpdateInterval = 5 * time.Minute
	receiptPollInterval    = 3 * time.Second
)

// Client implements ports.MarketPlatform for Omen.
type Client struct {
	eth           *ethclient.Client
	graph         *rest.Client
	subgraphURL   string
	privateKey    *ecdsa.PrivateKey
	address       common.Address
	settleTimeout time.Duration

	mu           sync.RWMutex
	cachedGasWei *big.Int
	gasUpdatedAt time.Time
}

// New builds a client. An empty subgraphURL uses the hosted subgraph.
// rpcURL and privateKeyHex may be empty for read-only use (benchmarks);
// trading and balance reads then fail with an explicit error.
func New(rpcURL, subgraphURL, privateKeyHex string, settleTimeout time.Duration) (*Client, error) {
	if subgraphURL == "" {
		subgraphURL = defaultSubgraphURL
	}
	if settleTimeout <= 0 {
		settleTimeout = 90 * time.Second
	}

	c := &Client{
		graph:         rest.NewClient(graphRatePerSec, 5, nil),
		subgraphURL:   subgraphURL,
		settleTimeout: settleTimeout,
	}

	if rpcURL != "" {
		eth, err := ethclient.Dial(rpcURL)
		if err != nil {
			return nil, fmt.Errorf("omen: dial rpc %s: %w", rpcURL, err)
		}
		c.eth = eth
	}

	if privateKeyHex != "" {
		pkBytes, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("omen: decode private key: %w", err)
		}
		privKey, err := crypto.ToECDSA(pkBytes)
		if err != nil {
			return nil, fmt.Errorf("omen: invalid private key: %w", err)
		}
		c.privateKey = privKey
		c.address = crypto.PubkeyToAddress(privKey.PublicKey)
	}

	return c, nil
}

func (c *Client) Name() string { return PlatformName }

// OpenMarkets lists open binary markets from the subgraph. All three sort
// keys map onto subgraph orderings.
func (c *Client) OpenMarkets(ctx context.Context, limit int, sortBy ports.SortBy) ([]domain.Market, error) {
	orderBy, orderDir := "openingTimestamp", "asc"
	switch sortBy {
	case ports.SortClosingSoonest:
		// default
	case ports.SortHighestLiquidity:
		orderBy, orderDir = "scaledLiquidityParameter", "desc"
	case ports.SortNewest:
		orderBy, orderDir = "creationTimestamp", "desc"
	default:
		slog.Debug("omen: unsupported sort key, using openingTimestamp", "requested", sortBy)
	}

	query := fmt.Sprintf(`query ($now: BigInt!, $limit: Int!) {
		fixedProductMarketMakers(
			where: {
				outcomeSlotCount: 2,
				answerFinalizedTimestamp: null,
				openingTimestamp_gt: $now,
				scaledLiquidityParameter_gt: 0
			},
			orderBy: %s, orderDirection: %s, first: $limit
		) { %s }
	}`, orderBy, orderDir, marketFields)

	var resp marketsResponse
	err := c.query(ctx, query, map[string]any{
		"now":   strconv.FormatInt(time.Now().Unix(), 10),
		"limit": limit,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("omen.OpenMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(resp.Data.Markets))
	for _, sm := range resp.Data.Markets {
		m, err := toDomain(sm)
		if err != nil {
			slog.Debug("omen: skipping unusable market", "id", sm.ID, "err", err)
			continue
		}
		if !m.IsOpen() {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

const marketFields = `id title outcomes outcomeTokenMarginalPrices fee
	openingTimestamp scaledLiquidityParameter isPendingArbitration
	currentAnswer answerFinalizedTimestamp`

// GetMarket fetches one market by its AMM address.
func (c *Client) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	query := fmt.Sprintf(`query ($id: ID!) {
		fixedProductMarketMaker(id: $id) { %s }
	}`, marketFields)

	var resp marketResponse
	err := c.query(ctx, query, map[string]any{"id": strings.ToLower(id)}, &resp)
	if err != nil {
		return domain.Market{}, fmt.Errorf("omen.GetMarket: %s: %w", id, err)
	}
	if resp.Data.Market == nil {
		return domain.Market{}, fmt.Errorf("omen.GetMarket: %s: %w", id, domain.ErrNotFound)
	}

	m, err := toDomain(*resp.Data.Market)
	if err != nil {
		return domain.Market{}, fmt.Errorf("omen.GetMarket: %w", err)
	}
	return m, nil
}

// GetPosition reads the wallet's outcome-token holdings from the subgraph.
func (c *Client) GetPosition(ctx context.Context, identity string, market domain.Market) (*domain.Position, error) {
	query := `query ($market: String!, $user: String!) {
		marketPositions(where: { market: $market, user: $user }) {
			outcomeIndex netQuantity
		}
	}`

	var resp positionsResponse
	err := c.query(ctx, query, map[string]any{
		"market": strings.ToLower(market.ID),
		"user":   strings.ToLower(identity),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("omen.GetPosition: %w", err)
	}

	pos := &domain.Position{MarketID: market.ID}
	for _, row := range resp.Data.Positions {
		qty, ok := new(big.Int).SetString(row.NetQuantity, 10)
		if !ok || qty.Sign() <= 0 {
			continue
		}
		switch row.OutcomeIndex {
		case strconv.Itoa(outcomeIndexYes):
			pos.YesTokens = pos.YesTokens.Add(fromWei(qty))
		case strconv.Itoa(outcomeIndexNo):
			pos.NoTokens = pos.NoTokens.Add(fromWei(qty))
		}
	}
	if pos.IsEmpty() {
		return nil, nil
	}
	return pos, nil
}

// Balance returns the wallet's wxDAI collateral balance.
func (c *Client) Balance(ctx context.Context, identity string) (decimal.Decimal, error) {
	if c.eth == nil {
		return decimal.Zero, fmt.Errorf("omen.Balance: no rpc configured")
	}

	owner := c.address
	if identity != "" {
		owner = common.HexToAddress(identity)
	}

	callData, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("omen.Balance: pack: %w", err)
	}

	token := common.HexToAddress(wxDaiAddress)
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return decimal.Zero, domain.Transient("omen.Balance", err)
	}

	vals, err := erc20ABI.Unpack("balanceOf", raw)
	if err != nil || len(vals) == 0 {
		return decimal.Zero, fmt.Errorf("omen.Balance: unpack: %w", err)
	}
	return fromWei(vals[0].(*big.Int)), nil
}

// PlaceTrade executes one AMM trade and blocks until the transaction is
// mined or the settle timeout expires. Buys quote calcBuyAmount first and
// demand at least the quote minus slippage; sells mirror with
// calcSellAmount.
func (c *Client) PlaceTrade(ctx context.Context, market domain.Market, trade domain.Trade) (domain.TradeReceipt, error) {
	if c.eth == nil || c.privateKey == nil {
		return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: no signer configured")
	}

	fpmm := common.HexToAddress(market.ID)
	amountWei := toWei(trade.Amount)
	idx := big.NewInt(outcomeIndex(trade.Outcome))

	var callData []byte
	switch trade.Type {
	case domain.Buy:
		quote, err := c.callFPMM(ctx, fpmm, "calcBuyAmount", amountWei, idx)
		if err != nil {
			return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: quote: %w", err)
		}
		if err := c.ensureCollateralAllowance(ctx, fpmm, amountWei); err != nil {
			return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: %w", err)
		}
		minTokens := applySlippage(quote)
		callData, err = fpmmABI.Pack("buy", amountWei, idx, minTokens)
		if err != nil {
			return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: pack buy: %w", err)
		}
	case domain.Sell:
		quote, err := c.callFPMM(ctx, fpmm, "calcSellAmount", amountWei, idx)
		if err != nil {
			return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: quote: %w", err)
		}
		if err := c.ensureOutcomeTokenApproval(ctx, fpmm); err != nil {
			return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: %w", err)
		}
		maxTokens := new(big.Int).Div(new(big.Int).Mul(quote, big.NewInt(slippageDenom+1)), big.NewInt(slippageDenom))
		callData, err = fpmmABI.Pack("sell", amountWei, idx, maxTokens)
		if err != nil {
			return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: pack sell: %w", err)
		}
	default:
		return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: unknown trade type %q", trade.Type)
	}

	txHash, err := c.sendTx(ctx, fpmm, callData, tradeGasLimit)
	if err != nil {
		return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: %w", err)
	}
	slog.Info("omen: trade sent", "market", market.ID, "type", trade.Type, "amount", trade.Amount, "tx", txHash.Hex())

	receiptCtx, cancel := context.WithTimeout(ctx, c.settleTimeout)
	defer cancel()

	receipt, err := c.waitForReceipt(receiptCtx, txHash)
	if err != nil {
		return domain.TradeReceipt{}, domain.Transient("omen.PlaceTrade",
			fmt.Errorf("tx %s not mined within %s: %w", txHash.Hex(), c.settleTimeout, err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return domain.TradeReceipt{}, fmt.Errorf("omen.PlaceTrade: tx %s reverted: %w",
			txHash.Hex(), domain.ErrTradeRejected)
	}

	return domain.TradeReceipt{
		ID:          uuid.NewString(),
		PlatformRef: txHash.Hex(),
		SettledAt:   time.Now().UTC(),
	}, nil
}

// callFPMM runs a view function on the market maker.
func (c *Client) callFPMM(ctx context.Context, fpmm common.Address, method string, args ...any) (*big.Int, error) {
	callData, err := fpmmABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &fpmm, Data: callData}, nil)
	if err != nil {
		return nil, domain.Transient("omen."+method, err)
	}
	vals, err := fpmmABI.Unpack(method, raw)
	if err != nil || len(vals) == 0 {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return vals[0].(*big.Int), nil
}

// ensureCollateralAllowance approves wxDAI spending for the market maker
// when the current allowance cannot cover the trade.
func (c *Client) ensureCollateralAllowance(ctx context.Context, fpmm common.Address, amount *big.Int) error {
	token := common.HexToAddress(wxDaiAddress)

	callData, err := erc20ABI.Pack("allowance", c.address, fpmm)
	if err != nil {
		return fmt.Errorf("pack allowance: %w", err)
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return domain.Transient("omen.allowance", err)
	}
	vals, err := erc20ABI.Unpack("allowance", raw)
	if err != nil || len(vals) == 0 {
		return fmt.Errorf("unpack allowance: %w", err)
	}
	if vals[0].(*big.Int).Cmp(amount) >= 0 {
		return nil
	}

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	approveData, err := erc20ABI.Pack("approve", fpmm, maxUint256)
	if err != nil {
		return fmt.Errorf("pack approve: %w", err)
	}

	slog.Info("omen: setting wxDAI approval", "spender", fpmm.Hex())
	txHash, err := c.sendTx(ctx, token, approveData, approvalGasLimit)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	receiptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	receipt, err := c.waitForReceipt(receiptCtx, txHash)
	if err != nil {
		return fmt.Errorf("approve receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approve tx reverted")
	}
	return nil
}

// ensureOutcomeTokenApproval grants the market maker ERC1155 operator
// rights on the conditional tokens, needed before a sell.
func (c *Client) ensureOutcomeTokenApproval(ctx context.Context, fpmm common.Address) error {
	ct := common.HexToAddress(conditionalTokensAddress)

	callData, err := erc1155ABI.Pack("isApprovedForAll", c.address, fpmm)
	if err != nil {
		return fmt.Errorf("pack isApprovedForAll: %w", err)
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &ct, Data: callData}, nil)
	if err != nil {
		return domain.Transient("omen.isApprovedForAll", err)
	}
	vals, err := erc1155ABI.Unpack("isApprovedForAll", raw)
	if err != nil || len(vals) == 0 {
		return fmt.Errorf("unpack isApprovedForAll: %w", err)
	}
	if vals[0].(bool) {
		return nil
	}

	approveData, err := erc1155ABI.Pack("setApprovalForAll", fpmm, true)
	if err != nil {
		return fmt.Errorf("pack setApprovalForAll: %w", err)
	}

	slog.Info("omen: setting conditional token approval", "operator", fpmm.Hex())
	txHash, err := c.sendTx(ctx, ct, approveData, approvalGasLimit)
	if err != nil {
		return fmt.Errorf("setApprovalForAll: %w", err)
	}

	receiptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	receipt, err := c.waitForReceipt(receiptCtx, txHash)
	if err != nil {
		return fmt.Errorf("setApprovalForAll receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("setApprovalForAll tx reverted")
	}
	return nil
}

// sendTx signs and broadcasts a legacy transaction, estimating gas with a
// 20% buffer and falling back to the configured limit.
func (c *Client) sendTx(ctx context.Context, to common.Address, callData []byte, gasLimit uint64) (common.Hash, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return common.Hash{}, domain.Transient("omen.nonce", err)
	}

	gasPrice, err := c.getGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}

	gasEstimate, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:     c.address,
		To:       &to,
		GasPrice: gasPrice,
		Data:     callData,
	})
	if err != nil {
		gasEstimate = gasLimit
		slog.Warn("omen: gas estimate failed, using default", "err", err, "limit", gasLimit)
	}
	gasEstimate = gasEstimate * 12 / 10

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasEstimate, gasPrice, callData)

	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(gnosisChainID)), c.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, domain.Transient("omen.sendTx", err)
	}
	return signed.Hash(), nil
}

// getGasPrice returns the current gas price with caching, buffered 10%
// for faster inclusion.
func (c *Client) getGasPrice(ctx context.Context) (*big.Int, error) {
	c.mu.RLock()
	cached := c.cachedGasWei
	updatedAt := c.gasUpdatedAt
	c.mu.RUnlock()

	if cached != nil && time.Since(updatedAt) < gasPriceUpdateInterval {
		return cached, nil
	}

	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		if cached != nil {
			return cached, nil
		}
		return big.NewInt(2_000_000_000), nil // 2 gwei fallback
	}

	buffered := new(big.Int).Mul(price, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))

	c.mu.Lock()
	c.cachedGasWei = buffered
	c.gasUpdatedAt = time.Now()
	c.mu.Unlock()

	return buffered, nil
}

// waitForReceipt polls for a transaction receipt until mined or timeout.
func (c *Client) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := c.eth.TransactionReceipt(ctx, txHash)
			if err != nil {
				continue // not yet mined
			}
			return receipt, nil
		}
	}
}

// query posts a GraphQL request and surfaces subgraph-level errors.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out graphResponse) error {
	req := graphQLRequest{Query: query, Variables: vars}
	if err := c.graph.Post(ctx, c.subgraphURL, req, out); err != nil {
		return err
	}
	if errs := out.graphErrors(); len(errs) > 0 {
		return fmt.Errorf("subgraph: %s", errs[0].Message)
	}
	return nil
}

func applySlippage(quote *big.Int) *big.Int {
	return new(big.Int).Div(new(big.Int).Mul(quote, big.NewInt(slippageNum)), big.NewInt(slippageDenom))
}
