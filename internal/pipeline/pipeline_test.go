package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidalm/betbench/internal/domain"
	"github.com/avidalm/betbench/internal/pipeline"
	"github.com/avidalm/betbench/internal/ports"
	"github.com/avidalm/betbench/internal/strategy"
)

// --- fakes ---

type fakePlatform struct {
	markets   []domain.Market
	balance   decimal.Decimal
	positions map[string]*domain.Position

	placed    []domain.Trade
	placeErrs []error // consumed one per PlaceTrade call
}

func (f *fakePlatform) Name() string { return "fake" }

func (f *fakePlatform) OpenMarkets(_ context.Context, limit int, _ ports.SortBy) ([]domain.Market, error) {
	if len(f.markets) > limit {
		return f.markets[:limit], nil
	}
	return f.markets, nil
}

func (f *fakePlatform) GetMarket(_ context.Context, id string) (domain.Market, error) {
	for _, m := range f.markets {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Market{}, domain.ErrNotFound
}

func (f *fakePlatform) GetPosition(_ context.Context, _ string, m domain.Market) (*domain.Position, error) {
	return f.positions[m.ID], nil
}

func (f *fakePlatform) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakePlatform) PlaceTrade(_ context.Context, _ domain.Market, t domain.Trade) (domain.TradeReceipt, error) {
	call := len(f.placed)
	f.placed = append(f.placed, t)
	if call < len(f.placeErrs) && f.placeErrs[call] != nil {
		return domain.TradeReceipt{}, f.placeErrs[call]
	}
	return domain.TradeReceipt{ID: fmt.Sprintf("r%d", call), PlatformRef: fmt.Sprintf("ref%d", call)}, nil
}

type fakeAgent struct {
	name      string
	verify    bool
	verifyErr error
	answer    domain.AnswerResult
}

func (f *fakeAgent) Name() string { return f.name }

func (f *fakeAgent) Verify(_ context.Context, _ domain.Market) (bool, error) {
	return f.verify, f.verifyErr
}

func (f *fakeAgent) Answer(_ context.Context, _ domain.Market) domain.AnswerResult {
	return f.answer
}

// builderAgent additionally sizes its own trades.
type builderAgent struct {
	fakeAgent
	trades []domain.Trade
}

func (b *builderAgent) BuildTrades(_ context.Context, _ domain.Market, _ domain.ProbabilisticAnswer, _ *domain.Position) ([]domain.Trade, error) {
	return b.trades, nil
}

// --- helpers ---

func market(id string, pYes float64) domain.Market {
	return domain.Market{
		ID:       id,
		Platform: "fake",
		Question: "Will " + id + " happen?",
		Outcomes: [2]domain.Outcome{
			{Name: domain.OutcomeYes, Probability: pYes},
			{Name: domain.OutcomeNo, Probability: 1 - pYes},
		},
		Status: domain.MarketOpen,
	}
}

func confident(pYes float64) *fakeAgent {
	return &fakeAgent{
		name:   "agent",
		verify: true,
		answer: domain.AnswerOf(domain.NewAnswer(pYes, 1.0, "")),
	}
}

func kelly() strategy.Strategy {
	return strategy.NewKelly(strategy.Params{
		MaxStake: decimal.NewFromInt(5),
		MinEdge:  0.05,
	})
}

func newPipeline(plat ports.MarketPlatform, agent ports.Agent) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{Identity: "me"}, plat, agent, kelly())
}

// --- tests ---

func TestRun_OneRecordPerMarket(t *testing.T) {
	closed := market("m3", 0.5)
	closed.Status = domain.MarketClosed

	plat := &fakePlatform{
		markets: []domain.Market{market("m1", 0.5), market("m2", 0.9), closed},
		balance: decimal.NewFromInt(10),
	}

	records, summary, err := newPipeline(plat, confident(0.9)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3, "every fetched market gets a record")

	// m1: edge 0.4 → trade; m2: agent agrees with the market, no edge; m3: closed
	assert.Equal(t, domain.StatusSubmitted, records[0].Status)
	assert.Equal(t, domain.StatusSkipped, records[1].Status)
	assert.Equal(t, "insufficient edge", records[1].Reason)
	assert.Equal(t, domain.StatusSkipped, records[2].Status)
	assert.Equal(t, "market is not open", records[2].Reason)

	assert.Equal(t, domain.RunSummary{Submitted: 1, Skipped: 2}, summary)
	assert.Equal(t, 3, summary.Total())
}

func TestRun_DeduplicatesMarkets(t *testing.T) {
	plat := &fakePlatform{
		markets: []domain.Market{market("m1", 0.5), market("m1", 0.5)},
		balance: decimal.NewFromInt(10),
	}

	records, _, err := newPipeline(plat, confident(0.9)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestProcessMarket_VerifyFalseSkips(t *testing.T) {
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}
	agent := confident(0.9)
	agent.verify = false

	rec, err := newPipeline(plat, agent).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, rec.Status)
	assert.Equal(t, "verification failed", rec.Reason)
	assert.Nil(t, rec.Answer)
}

func TestProcessMarket_VerifyErrorFails(t *testing.T) {
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}
	agent := confident(0.9)
	agent.verifyErr = errors.New("category service down")

	rec, err := newPipeline(plat, agent).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err, "platform/agent errors never abort the run")
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Contains(t, rec.Reason, "category service down")
}

func TestProcessMarket_AbstentionSkips(t *testing.T) {
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}
	agent := &fakeAgent{name: "agent", verify: true, answer: domain.Abstain()}

	rec, err := newPipeline(plat, agent).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, rec.Status)
	assert.Equal(t, "agent abstained", rec.Reason)
}

func TestProcessMarket_AnswerErrorFails(t *testing.T) {
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}
	agent := &fakeAgent{name: "agent", verify: true, answer: domain.AnswerError(errors.New("llm timeout"))}

	rec, err := newPipeline(plat, agent).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Contains(t, rec.Reason, "llm timeout")
}

func TestProcessMarket_InvalidSnapshotFails(t *testing.T) {
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}
	m := market("m1", 0.5)
	m.Outcomes[1].Probability = 0.9 // sum 1.4

	rec, err := newPipeline(plat, confident(0.9)).ProcessMarket(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
}

func TestProcessMarket_SubmitsSizedTrade(t *testing.T) {
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}

	rec, err := newPipeline(plat, confident(0.9)).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, rec.Status)
	require.Len(t, rec.Trades, 1)
	require.NotNil(t, rec.Answer)

	// edge 0.4 on even odds, balance 10 → stake 4
	assert.True(t, rec.Trades[0].Trade.Amount.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "ref0", rec.Trades[0].Receipt.PlatformRef)
}

func TestProcessMarket_InsufficientBalanceKeepsPrefix(t *testing.T) {
	// Held No tokens force a sell before the buy; the buy then fails.
	plat := &fakePlatform{
		balance:   decimal.NewFromInt(10),
		positions: map[string]*domain.Position{"m1": {MarketID: "m1", NoTokens: decimal.NewFromInt(8)}},
		placeErrs: []error{nil, fmt.Errorf("no funds: %w", domain.ErrInsufficientBalance)},
	}

	rec, err := newPipeline(plat, confident(0.9)).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Contains(t, rec.Reason, "remaining trades abandoned")
	require.Len(t, rec.Trades, 1, "the settled sell stays in the record")
	assert.Equal(t, domain.Sell, rec.Trades[0].Trade.Type)
	assert.Len(t, plat.placed, 2, "nothing after the failed trade is attempted")
}

func TestRun_FailedMarketDoesNotAbortBatch(t *testing.T) {
	plat := &fakePlatform{
		markets:   []domain.Market{market("m1", 0.5), market("m2", 0.5)},
		balance:   decimal.NewFromInt(10),
		placeErrs: []error{fmt.Errorf("rejected: %w", domain.ErrTradeRejected)},
	}

	records, summary, err := newPipeline(plat, confident(0.9)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.StatusFailed, records[0].Status)
	assert.Equal(t, domain.StatusSubmitted, records[1].Status)
	assert.Equal(t, domain.RunSummary{Submitted: 1, Failed: 1}, summary)
}

func TestRun_DeadlineOmitsRemaining(t *testing.T) {
	plat := &fakePlatform{
		markets: []domain.Market{market("m1", 0.5), market("m2", 0.5)},
		balance: decimal.NewFromInt(10),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, _, err := newPipeline(plat, confident(0.9)).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "expired run omits markets instead of recording failures")
}

func TestRun_MaxMarketsPerRunCapsSubmissions(t *testing.T) {
	plat := &fakePlatform{
		markets: []domain.Market{market("m1", 0.5), market("m2", 0.5), market("m3", 0.5)},
		balance: decimal.NewFromInt(10),
	}

	pipe := pipeline.New(pipeline.Config{Identity: "me", MaxMarketsPerRun: 1}, plat, confident(0.9), kelly())
	records, summary, err := pipe.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, summary.Submitted)
}

func TestProcessMarket_TradeBuilderOverridesStrategy(t *testing.T) {
	custom, err := domain.NewBuy(domain.OutcomeNo, decimal.NewFromInt(2), 0.5, 0)
	require.NoError(t, err)

	agent := &builderAgent{
		fakeAgent: *confident(0.9),
		trades:    []domain.Trade{custom},
	}
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}

	rec, err := newPipeline(plat, agent).ProcessMarket(context.Background(), market("m1", 0.5))
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, rec.Status)
	require.Len(t, rec.Trades, 1)
	assert.Equal(t, domain.OutcomeNo, rec.Trades[0].Trade.Outcome, "agent sizing wins over the default strategy")
}

func TestProcessMarket_NegativeAgentTradeIsFatal(t *testing.T) {
	agent := &builderAgent{
		fakeAgent: *confident(0.9),
		trades:    []domain.Trade{{Type: domain.Buy, Outcome: domain.OutcomeYes, Amount: decimal.NewFromInt(-3)}},
	}
	plat := &fakePlatform{balance: decimal.NewFromInt(10)}

	_, err := newPipeline(plat, agent).ProcessMarket(context.Background(), market("m1", 0.5))
	require.Error(t, err, "contract violations abort, they are not Failed records")
	assert.Empty(t, plat.placed)
}
