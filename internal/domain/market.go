package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProbabilityTolerance is the allowed drift when outcome probabilities
// are checked to sum to 1. Platforms quote prices with limited precision,
// so an exact sum can't be required.
const ProbabilityTolerance = 0.02

// MarketStatus is the lifecycle state of a market on its platform.
type MarketStatus string

const (
	MarketOpen     MarketStatus = "open"
	MarketClosed   MarketStatus = "closed"
	MarketResolved MarketStatus = "resolved"
)

// Resolution is the final ground-truth outcome of a resolved market.
type Resolution string

const (
	ResolutionYes    Resolution = "YES"
	ResolutionNo     Resolution = "NO"
	ResolutionCancel Resolution = "CANCEL" // market voided, no ground truth
)

const (
	OutcomeYes = "Yes"
	OutcomeNo  = "No"
)

// OppositeOutcome returns the other side of a binary market.
func OppositeOutcome(outcome string) string {
	if outcome == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// Outcome is one side of a binary market with its current implied probability.
type Outcome struct {
	Name        string
	Probability float64
}

// Market is the platform-neutral view of a binary prediction market.
// The platform is the source of truth; instances are snapshots, never
// mutated locally.
type Market struct {
	ID           string
	Platform     string
	Question     string
	Outcomes     [2]Outcome
	Status       MarketStatus
	Resolution   *Resolution // nil until resolved
	CloseTime    time.Time
	Liquidity    decimal.Decimal
	FeeRate      float64 // proportional fee charged on buys
	MinTradeSize decimal.Decimal
}

// PYes returns the implied probability of the Yes outcome.
func (m Market) PYes() float64 {
	for _, o := range m.Outcomes {
		if o.Name == OutcomeYes {
			return o.Probability
		}
	}
	return m.Outcomes[0].Probability
}

// PNo returns the implied probability of the No outcome.
func (m Market) PNo() float64 {
	for _, o := range m.Outcomes {
		if o.Name == OutcomeNo {
			return o.Probability
		}
	}
	return m.Outcomes[1].Probability
}

// ImpliedProbability returns the implied probability of the given outcome.
func (m Market) ImpliedProbability(outcome string) float64 {
	if outcome == OutcomeYes {
		return m.PYes()
	}
	return m.PNo()
}

func (m Market) IsOpen() bool     { return m.Status == MarketOpen }
func (m Market) IsResolved() bool { return m.Status == MarketResolved }

// ResolvedYes reports whether the market resolved Yes. The second return
// is false for unresolved or cancelled markets.
func (m Market) ResolvedYes() (yes bool, ok bool) {
	if m.Resolution == nil {
		return false, false
	}
	switch *m.Resolution {
	case ResolutionYes:
		return true, true
	case ResolutionNo:
		return false, true
	}
	return false, false
}

// Validate checks the invariants every adapter read must uphold:
// probabilities in [0,1] summing to 1 within tolerance, and a resolution
// present iff the market is resolved.
func (m Market) Validate() error {
	sum := 0.0
	for _, o := range m.Outcomes {
		if math.IsNaN(o.Probability) || o.Probability < 0 || o.Probability > 1 {
			return fmt.Errorf("domain.Market: outcome %q has invalid probability %v", o.Name, o.Probability)
		}
		sum += o.Probability
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return fmt.Errorf("domain.Market: outcome probabilities sum to %.4f, want 1±%.2f", sum, ProbabilityTolerance)
	}
	if m.Status == MarketResolved && m.Resolution == nil {
		return fmt.Errorf("domain.Market: %s is resolved but has no resolution", m.ID)
	}
	if m.Status != MarketResolved && m.Resolution != nil {
		return fmt.Errorf("domain.Market: %s has a resolution but status %q", m.ID, m.Status)
	}
	return nil
}

// NormalizeQuestion produces the cache-key form of a question: lowercased,
// trimmed, inner whitespace collapsed. Two platforms phrasing the same
// question differently still produce distinct keys; the cache does not
// deduplicate across phrasings.
func NormalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// TruncateQuestion shortens a question for table output, falling back to
// the market ID when the question is empty.
func TruncateQuestion(question, id string, maxLen int) string {
	q := question
	if q == "" {
		if len(id) > 20 {
			q = id[:20] + "..."
		} else {
			q = id
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}

// CloseTimeOrZero is a sort helper; markets without a close time sort last.
func (m Market) CloseTimeOrZero() time.Time {
	if m.CloseTime.IsZero() {
		return time.Unix(1<<40, 0)
	}
	return m.CloseTime
}
