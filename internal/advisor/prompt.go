package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/finsightlab/finsight-go/internal/models"
)

var titleCaser = cases.Title(language.English)

const systemPreamble = `You are a financial dashboard assistant. Answer using only the data
provided below. Sections marked "unavailable" failed to load: say so
rather than guessing. Never invent prices, dates, or holdings. This is
informational output, not investment advice, and should say so briefly.`

func buildSummaryPrompt(sections []models.ReportSection, snapshot *models.PortfolioSnapshot) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nGive a concise briefing of the dashboard state below.\n")
	writeContext(&b, sections, snapshot)
	return b.String()
}

func buildQuestionPrompt(question string, sections []models.ReportSection, snapshot *models.PortfolioSnapshot) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")
	writeContext(&b, sections, snapshot)
	return b.String()
}

// writeContext renders each report section as a titled block. Failed
// sections are reported as unavailable with their reason; empty sections
// as having no data. Payloads go in as compact JSON, which the model
// handles better than ad hoc prose.
func writeContext(b *strings.Builder, sections []models.ReportSection, snapshot *models.PortfolioSnapshot) {
	if snapshot != nil {
		b.WriteString("\n## Portfolio\n")
		writePortfolio(b, snapshot)
	}
	for _, s := range sections {
		fmt.Fprintf(b, "\n## %s\n", sectionTitle(s.Name))
		switch s.Status {
		case models.StatusOk:
			payload, err := json.Marshal(s.Payload)
			if err != nil {
				fmt.Fprintf(b, "unavailable: %v\n", err)
				continue
			}
			b.Write(payload)
			b.WriteString("\n")
		case models.StatusEmpty:
			b.WriteString("no data for this period\n")
		case models.StatusFailed:
			fmt.Fprintf(b, "unavailable: %s\n", s.Reason)
		}
	}
}

func writePortfolio(b *strings.Builder, snapshot *models.PortfolioSnapshot) {
	fmt.Fprintf(b, "total value %s, cost basis %s, gain/loss %s",
		snapshot.TotalValue.StringFixed(2), snapshot.TotalCost.StringFixed(2), snapshot.TotalGainLoss.StringFixed(2))
	if snapshot.TotalGainLossPct != nil {
		fmt.Fprintf(b, " (%s%%)", snapshot.TotalGainLossPct.StringFixed(2))
	}
	b.WriteString("\n")
	for _, p := range snapshot.TopAllocations(5) {
		fmt.Fprintf(b, "- %s: %s units", p.Symbol, p.Quantity.String())
		if p.CurrentValue != nil {
			fmt.Fprintf(b, ", value %s", p.CurrentValue.StringFixed(2))
		}
		b.WriteString("\n")
	}
	if len(snapshot.UnpricedSymbols) > 0 {
		fmt.Fprintf(b, "unpriced holdings (excluded from totals): %s\n",
			strings.Join(snapshot.UnpricedSymbols, ", "))
	}
}

// sectionTitle turns a section key like "market_trends" into
// "Market Trends" for the prompt headings.
func sectionTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}
