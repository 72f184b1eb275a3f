package presenter

import (
	"fmt"
	"strings"
)

// Markdown renders the list between two copies of the summary, the layout
// the web page uses.
func (p *Presenter) Markdown(list ListView, summary SummaryView) string {
	var b strings.Builder
	c := p.catalog

	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	p.writePanel(&b, summary.Top)

	fmt.Fprintf(&b, "## %s\n\n", c.ListHeading)
	if list.Empty {
		fmt.Fprintf(&b, "_%s_\n\n", c.NoTransactions)
	} else {
		fmt.Fprintf(&b, "| ID | %s | %s | %s | %s | %s |\n", c.Date, c.Time, c.Description, c.Type, c.Amount)
		b.WriteString("|---|---|---|---|---|---:|\n")
		for _, r := range list.Rows {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s | %s |\n",
				r.ID, r.Date, r.Time, escapeCell(r.Description), r.TypeLabel, r.Amount)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", c.AllTotals)
	p.writePanel(&b, summary.Bottom)
	return b.String()
}

// SummaryMarkdown renders one panel on its own.
func (p *Presenter) SummaryMarkdown(summary SummaryView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", p.catalog.AllTotals)
	p.writePanel(&b, summary.Top)
	return b.String()
}

func (p *Presenter) writePanel(b *strings.Builder, panel Panel) {
	c := p.catalog
	fmt.Fprintf(b, "- %s: **%s**\n", c.TotalIncome, panel.TotalIncome)
	fmt.Fprintf(b, "- %s: **%s**\n", c.TotalExpense, panel.TotalExpense)
	balance := panel.Balance
	if panel.BalanceState == BalanceNegative {
		balance = "⚠ " + balance
	}
	fmt.Fprintf(b, "- %s: **%s**\n\n", c.Balance, balance)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
