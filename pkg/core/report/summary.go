// Package report renders the one-page readout that accompanies every
// generated workbook: headline metrics, the embedded check cells, and any
// warning flags, as markdown with an HTML form for the API.
package report

import (
	"fmt"
	"strings"
	"time"

	"finmodel/pkg/core/utils"
	"finmodel/pkg/models"
)

// Markdown renders the run report. The body is self-contained: a reviewer
// can read it without opening the workbook.
func Markdown(run *models.ModelRun) string {
	s := run.Summary
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s (%s)\n\n", s.Company, strings.ToUpper(string(s.ModelType))))
	if run.ID != "" {
		sb.WriteString(fmt.Sprintf("Run `%s`", run.ID))
		if !run.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf(", generated %s", run.CreatedAt.UTC().Format(time.RFC3339)))
		}
		sb.WriteString("\n\n")
	}
	if run.WorkbookPath != "" {
		sb.WriteString(fmt.Sprintf("Workbook: `%s`\n\n", run.WorkbookPath))
	}

	sb.WriteString("## Headline Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Forecast Years | %d |\n", s.Years))
	switch s.ModelType {
	case models.ModelTypeLBO:
		sb.WriteString(fmt.Sprintf("| Entry EV | %s |\n", money(s.EntryEV)))
		sb.WriteString(fmt.Sprintf("| Equity Invested | %s |\n", money(s.EquityInvested)))
		sb.WriteString(fmt.Sprintf("| Exit EV | %s |\n", money(s.ExitEV)))
		sb.WriteString(fmt.Sprintf("| Exit Equity | %s |\n", money(s.ExitEquity)))
		sb.WriteString(fmt.Sprintf("| IRR | %s |\n", percent(s.IRR)))
		sb.WriteString(fmt.Sprintf("| MOIC | %.2fx |\n", s.MOIC))
	case models.ModelTypeDCF:
		sb.WriteString(fmt.Sprintf("| WACC | %s |\n", percent(s.WACC)))
		sb.WriteString(fmt.Sprintf("| Enterprise Value | %s |\n", money(s.EnterpriseValue)))
		sb.WriteString(fmt.Sprintf("| Equity Value | %s |\n", money(s.EquityValue)))
		sb.WriteString(fmt.Sprintf("| Implied Share Price | $%.2f |\n", s.ImpliedSharePrice))
	}
	sb.WriteString("\n")

	if len(s.Flags) > 0 {
		sb.WriteString("## Flags\n\n")
		for _, flag := range s.Flags {
			sb.WriteString(fmt.Sprintf("- %s\n", flag))
		}
		sb.WriteString("\n")
	}

	if len(s.Checks) > 0 {
		sb.WriteString("## Workbook Checks\n\n")
		sb.WriteString("| Sheet | Cell | Check | Expect |\n")
		sb.WriteString("|-------|------|-------|--------|\n")
		for _, c := range s.Checks {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.Sheet, c.Cell, c.Label, c.Want))
		}
		sb.WriteString("\n")
	}

	if len(s.Sheets) > 0 {
		sb.WriteString("## Sheets\n\n")
		sb.WriteString(strings.Join(s.Sheets, ", "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// HTML renders the run report as HTML.
func HTML(run *models.ModelRun) (string, error) {
	return utils.RenderHTML(Markdown(run))
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.0f", -v)
	}
	return fmt.Sprintf("$%.0f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
