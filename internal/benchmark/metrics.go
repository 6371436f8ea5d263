package benchmark

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// AgentMetrics are one agent's scores over the benchmark's market set.
// Accuracy-style metrics are computed over answered markets only, so an
// agent that abstains often is penalized in ProportionAnswered but not in
// MSE — wrong and abstaining stay distinguishable failure modes.
type AgentMetrics struct {
	Agent              string
	MarketsAttempted   int
	MarketsAnswered    int
	ProportionAnswered float64
	MSE                float64 // p_yes vs binary resolution {0,1}
	MeanConfidence     float64
	Accuracy           float64 // answer >= 0.5 matches resolution
	PrecisionYes       float64
	RecallYes          float64
	// ConfidenceErrCorr is the Pearson correlation between confidence and
	// |error|; 0 when either series has no variance.
	ConfidenceErrCorr float64
	MeanCost          float64
	MeanLatency       time.Duration
}

// ComputeMetrics scores every agent against the resolved market set,
// reading predictions from the cache. Output is sorted by agent name so
// reports are deterministic.
func (b *Benchmarker) ComputeMetrics(ctx context.Context) ([]AgentMetrics, error) {
	out := make([]AgentMetrics, 0, len(b.agents))

	for _, agent := range b.agents {
		am := AgentMetrics{Agent: agent.Name()}

		var (
			errs        []float64 // squared errors
			absErrs     []float64
			confidences []float64
			costs       []float64
			latencies   []time.Duration
			correct     int
			tp, fp, fn  int
		)

		for _, m := range b.markets {
			pred, ok, err := b.GetPrediction(ctx, agent.Name(), m.Question)
			if err != nil {
				return nil, fmt.Errorf("benchmark.ComputeMetrics: %w", err)
			}
			if !ok {
				continue // never attempted (cache-only run over a larger set)
			}
			am.MarketsAttempted++
			if !pred.IsAnswered() {
				continue
			}
			am.MarketsAnswered++

			resolvedYes, _ := m.ResolvedYes()
			truth := 0.0
			if resolvedYes {
				truth = 1.0
			}

			a := *pred.Answer
			diff := a.PYes - truth
			errs = append(errs, diff*diff)
			absErrs = append(absErrs, math.Abs(diff))
			confidences = append(confidences, a.Confidence)
			if pred.Cost > 0 {
				costs = append(costs, pred.Cost)
			}
			if pred.Latency > 0 {
				latencies = append(latencies, pred.Latency)
			}

			predictedYes := a.PYes >= 0.5
			if predictedYes == resolvedYes {
				correct++
			}
			switch {
			case predictedYes && resolvedYes:
				tp++
			case predictedYes && !resolvedYes:
				fp++
			case !predictedYes && resolvedYes:
				fn++
			}
		}

		if am.MarketsAttempted > 0 {
			am.ProportionAnswered = float64(am.MarketsAnswered) / float64(am.MarketsAttempted)
		}
		if am.MarketsAnswered > 0 {
			am.MSE = mean(errs)
			am.MeanConfidence = mean(confidences)
			am.Accuracy = float64(correct) / float64(am.MarketsAnswered)
			am.PrecisionYes = safeRatio(tp, tp+fp)
			am.RecallYes = safeRatio(tp, tp+fn)
			am.ConfidenceErrCorr = pearson(confidences, absErrs)
		}
		if len(costs) > 0 {
			am.MeanCost = mean(costs)
		}
		if len(latencies) > 0 {
			var total time.Duration
			for _, l := range latencies {
				total += l
			}
			am.MeanLatency = total / time.Duration(len(latencies))
		}

		out = append(out, am)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// safeRatio is num/den with the sklearn zero_division=0 convention.
func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// pearson returns the correlation coefficient of x and y, or 0 when
// either series is constant (an agent with uniform confidence must not
// crash the metric).
func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}
