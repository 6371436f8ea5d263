// Package agents provides simple reference agents. They set the floor
// and the noise baseline that benchmark comparisons are read against,
// and double as deterministic fixtures in tests.
package agents

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/avidalm/betbench/internal/domain"
)

// Fixed always answers the same probability with full confidence.
type Fixed struct {
	name string
	pYes float64
}

// NewFixed builds a fixed-answer agent. pYes is clamped into [0, 1].
func NewFixed(name string, pYes float64) *Fixed {
	return &Fixed{name: name, pYes: pYes}
}

func (a *Fixed) Name() string { return a.name }

func (a *Fixed) Verify(_ context.Context, _ domain.Market) (bool, error) {
	return true, nil
}

func (a *Fixed) Answer(_ context.Context, _ domain.Market) domain.AnswerResult {
	return domain.AnswerOf(domain.NewAnswer(a.pYes, 1, fmt.Sprintf("fixed answer %.2f", a.pYes)))
}

// Random answers uniformly at random with random confidence. Seeded, so
// a benchmark run is reproducible.
type Random struct {
	name string
	rng  *rand.Rand
}

// NewRandom builds a random agent with its own seeded generator.
func NewRandom(name string, seed int64) *Random {
	return &Random{name: name, rng: rand.New(rand.NewSource(seed))}
}

func (a *Random) Name() string { return a.name }

func (a *Random) Verify(_ context.Context, _ domain.Market) (bool, error) {
	return true, nil
}

func (a *Random) Answer(_ context.Context, _ domain.Market) domain.AnswerResult {
	return domain.AnswerOf(domain.NewAnswer(a.rng.Float64(), a.rng.Float64(), "random answer"))
}
