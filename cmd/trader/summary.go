package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/avidalm/betbench/internal/domain"
)

// printRunSummary renders one row per processed market plus the totals.
func printRunSummary(out io.Writer, records []domain.ProcessedMarket, summary domain.RunSummary) {
	table := tablewriter.NewWriter(out)
	table.Header("Market", "Status", "Trades", "Detail")

	for _, rec := range records {
		detail := rec.Reason
		if rec.Status == domain.StatusSubmitted && len(rec.Trades) > 0 {
			t := rec.Trades[len(rec.Trades)-1]
			detail = fmt.Sprintf("%s %s %s", t.Trade.Type, t.Trade.Amount.StringFixed(2), t.Trade.Outcome)
		}
		table.Append(
			domain.TruncateQuestion(rec.Question, rec.MarketID, 45),
			string(rec.Status),
			fmt.Sprintf("%d", len(rec.Trades)),
			detail,
		)
	}
	table.Render()

	fmt.Fprintf(out, "submitted=%d skipped=%d failed=%d total=%d\n",
		summary.Submitted, summary.Skipped, summary.Failed, summary.Total())
}
