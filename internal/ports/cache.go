package ports

import (
	"context"

	"github.com/avidalm/betbench/internal/domain"
)

// PredictionCache persists benchmark predictions keyed by
// (agent name, normalized question). Entries are never implicitly
// invalidated; the operator deletes the cache to force recomputation,
// keeping benchmark comparisons reproducible across runs. One benchmarker
// owns the cache exclusively during a run.
type PredictionCache interface {
	// Get returns the cached prediction and whether one exists.
	Get(ctx context.Context, agentName, question string) (domain.Prediction, bool, error)

	// Put stores or overwrites the entry for (agentName, question).
	Put(ctx context.Context, agentName, question string, p domain.Prediction) error

	// Close releases the underlying store.
	Close() error
}
