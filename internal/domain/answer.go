package domain

import "math"

// ProbabilisticAnswer is an agent's belief about a binary market.
// Values are always clamped to [0,1]; construct through NewAnswer.
type ProbabilisticAnswer struct {
	PYes       float64
	Confidence float64
	Reasoning  string
}

// NewAnswer builds an answer with probability and confidence clamped to
// [0,1]. NaN collapses to 0 so a buggy agent can never poison sizing.
func NewAnswer(pYes, confidence float64, reasoning string) ProbabilisticAnswer {
	return ProbabilisticAnswer{
		PYes:       clamp01(pYes),
		Confidence: clamp01(confidence),
		Reasoning:  reasoning,
	}
}

// Direction returns the outcome the answer favors.
func (a ProbabilisticAnswer) Direction() string {
	if a.PYes >= 0.5 {
		return OutcomeYes
	}
	return OutcomeNo
}

// ProbabilityFor returns the answer's probability for the given outcome.
func (a ProbabilisticAnswer) ProbabilityFor(outcome string) float64 {
	if outcome == OutcomeYes {
		return a.PYes
	}
	return 1 - a.PYes
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AnswerStatus classifies the outcome of an agent's answer step.
// Abstention and failure are modeled as explicit variants rather than
// sentinel panics, so the pipeline can treat them uniformly.
type AnswerStatus string

const (
	Answered  AnswerStatus = "answered"
	Abstained AnswerStatus = "abstained"
	Errored   AnswerStatus = "errored"
)

// AnswerResult is the agent boundary's return value: exactly one of
// Answer (Answered) or Err (Errored) is set; Abstained carries neither.
type AnswerResult struct {
	Status AnswerStatus
	Answer *ProbabilisticAnswer
	Err    error
}

func AnswerOf(a ProbabilisticAnswer) AnswerResult {
	return AnswerResult{Status: Answered, Answer: &a}
}

func Abstain() AnswerResult {
	return AnswerResult{Status: Abstained}
}

func AnswerError(err error) AnswerResult {
	return AnswerResult{Status: Errored, Err: err}
}
