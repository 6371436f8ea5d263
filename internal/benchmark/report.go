package benchmark

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/avidalm/betbench/internal/domain"
)

// GenerateMarkdownReport renders the benchmark as a markdown document:
// market-set stats, the per-agent metric summary, and the per-market
// answers. Output is deterministic — agents sorted by name, markets in
// benchmark order — so successive runs over the same cache diff clean.
func (b *Benchmarker) GenerateMarkdownReport(ctx context.Context) (string, error) {
	metrics, err := b.ComputeMetrics(ctx)
	if err != nil {
		return "", err
	}

	var md strings.Builder
	md.WriteString("# Comparison Report\n\n")

	md.WriteString("## Market Results\n\n```\n")
	b.writeMarketResults(&md)
	md.WriteString("```\n\n")

	md.WriteString("## Agent Results\n\n### Summary Statistics\n\n```\n")
	writeMetricsTable(&md, metrics)
	md.WriteString("```\n\n")

	md.WriteString("### Markets\n\n```\n")
	if err := b.writeMarketsSummary(ctx, &md); err != nil {
		return "", err
	}
	md.WriteString("```\n")

	return md.String(), nil
}

func (b *Benchmarker) writeMarketResults(out *strings.Builder) {
	yes := 0
	for _, m := range b.markets {
		if resolvedYes, _ := m.ResolvedYes(); resolvedYes {
			yes++
		}
	}
	n := len(b.markets)

	table := tablewriter.NewWriter(out)
	table.Header("Markets", "Resolved Yes", "Resolved No")
	table.Append(
		fmt.Sprintf("%d", n),
		fmt.Sprintf("%d (%.0f%%)", yes, pct(yes, n)),
		fmt.Sprintf("%d (%.0f%%)", n-yes, pct(n-yes, n)),
	)
	table.Render()
}

func writeMetricsTable(out *strings.Builder, metrics []AgentMetrics) {
	table := tablewriter.NewWriter(out)
	table.Header("Agent", "Answered", "MSE", "Mean conf", "Accuracy",
		"Precision(yes)", "Recall(yes)", "Conf/err corr", "Mean cost $", "Mean time")

	for _, m := range metrics {
		table.Append(
			m.Agent,
			fmt.Sprintf("%d/%d (%.0f%%)", m.MarketsAnswered, m.MarketsAttempted, 100*m.ProportionAnswered),
			fmt.Sprintf("%.4f", m.MSE),
			fmt.Sprintf("%.2f", m.MeanConfidence),
			fmt.Sprintf("%.2f", m.Accuracy),
			fmt.Sprintf("%.2f", m.PrecisionYes),
			fmt.Sprintf("%.2f", m.RecallYes),
			fmt.Sprintf("%.3f", m.ConfidenceErrCorr),
			fmt.Sprintf("%.4f", m.MeanCost),
			m.MeanLatency.Truncate(1e6).String(),
		)
	}
	table.Render()
}

// writeMarketsSummary prints one row per market with every agent's answer:
// "0.90 [YES]" when answered, "abstained" when cached without an answer,
// "-" when never attempted.
func (b *Benchmarker) writeMarketsSummary(ctx context.Context, out *strings.Builder) error {
	names := make([]string, 0, len(b.agents))
	for _, a := range b.agents {
		names = append(names, a.Name())
	}
	sort.Strings(names)

	header := append([]string{"Market", "Resolution"}, names...)
	table := tablewriter.NewWriter(out)
	table.Header(asCells(header)...)

	for _, m := range b.markets {
		row := []string{
			domain.TruncateQuestion(m.Question, m.ID, 45),
			string(*m.Resolution),
		}
		for _, name := range names {
			pred, ok, err := b.GetPrediction(ctx, name, m.Question)
			if err != nil {
				return err
			}
			switch {
			case !ok:
				row = append(row, "-")
			case !pred.IsAnswered():
				row = append(row, "abstained")
			default:
				row = append(row, fmt.Sprintf("%.2f [%s]", pred.Answer.PYes, pred.Answer.Direction()))
			}
		}
		table.Append(asCells(row)...)
	}
	table.Render()
	return nil
}

func asCells(row []string) []any {
	cells := make([]any, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return cells
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
