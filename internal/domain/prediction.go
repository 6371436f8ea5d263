package domain

import "time"

// Prediction is a benchmark cache entry: an agent's answer to one question
// plus what producing it cost. A nil Answer records a deliberate abstention
// so re-runs skip recomputation.
type Prediction struct {
	Answer  *ProbabilisticAnswer
	Cost    float64 // reported monetary cost in USD, 0 when unknown
	Latency time.Duration
}

// IsAnswered reports whether the agent produced an answer.
func (p Prediction) IsAnswered() bool { return p.Answer != nil }
