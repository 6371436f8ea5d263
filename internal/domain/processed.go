package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedStatus is the terminal state of one pipeline pass over a market.
type ProcessedStatus string

const (
	// StatusSubmitted: all sized trades settled.
	StatusSubmitted ProcessedStatus = "submitted"
	// StatusSkipped: verification failed, the agent abstained, or sizing
	// produced no trades. Expected, not an error.
	StatusSkipped ProcessedStatus = "skipped"
	// StatusFailed: a platform or agent error stopped the market. Trades
	// executed before the failure are kept in the record.
	StatusFailed ProcessedStatus = "failed"
)

// ProcessedMarket is the append-only record of one pipeline pass over one
// market. Every fetched market produces exactly one, whatever the outcome.
type ProcessedMarket struct {
	ID         string
	MarketID   string
	Platform   string
	Question   string
	Answer     *ProbabilisticAnswer // nil when skipped before answering
	Trades     []ExecutedTrade
	Status     ProcessedStatus
	Reason     string // why skipped/failed; empty for submitted
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewProcessedMarket stamps a record for the given market. Status and
// result fields are filled by the pipeline before the record is appended.
func NewProcessedMarket(m Market, startedAt time.Time) ProcessedMarket {
	return ProcessedMarket{
		ID:        uuid.NewString(),
		MarketID:  m.ID,
		Platform:  m.Platform,
		Question:  m.Question,
		StartedAt: startedAt,
	}
}

// RunSummary counts terminal states over one pipeline invocation.
// Skipped and Failed are always surfaced, never hidden.
type RunSummary struct {
	Submitted int
	Skipped   int
	Failed    int
}

// Total returns the number of markets recorded.
func (s RunSummary) Total() int { return s.Submitted + s.Skipped + s.Failed }
