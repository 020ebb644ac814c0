package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"trade-eda/internal/domain"
)

const dateLayout = "2006-01-02"

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade EDA Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Source: %s | Dataset: %s\n\n", r.Dataset.Source, r.Dataset.ID))

	// Filter
	sb.WriteString("## Filter\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Start | %s |\n", r.Params.Start.Format(dateLayout)))
	sb.WriteString(fmt.Sprintf("| End | %s |\n", r.Params.End.Format(dateLayout)))
	contracts := "All"
	if len(r.Params.Contracts) > 0 {
		contracts = strings.Join(r.Params.Contracts, ", ")
	}
	sb.WriteString(fmt.Sprintf("| Contracts | %s |\n", contracts))
	sb.WriteString(fmt.Sprintf("| Rows Selected | %d of %d |\n", r.FilteredRows, r.Dataset.Rows))
	sb.WriteString("\n")

	// KPIs
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString("| Metric | All Trades | Selection |\n")
	sb.WriteString("|--------|------------|-----------|\n")
	all, sel := r.Overall, r.Summary.KPIs
	sb.WriteString(fmt.Sprintf("| Days Opened | %s | %s |\n", formatInt(all.DaysOpened), formatInt(sel.DaysOpened)))
	sb.WriteString(fmt.Sprintf("| Total Trades | %d | %d |\n", all.TotalTrades, sel.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate (%%) | %s | %s |\n", formatFloat(all.WinRate), formatFloat(sel.WinRate)))
	sb.WriteString(fmt.Sprintf("| Cumulative PnL | %s | %s |\n", formatFloat(all.CumulativePnL), formatFloat(sel.CumulativePnL)))
	sb.WriteString(fmt.Sprintf("| Total Fees | %s | %s |\n", formatFloat(all.TotalFees), formatFloat(sel.TotalFees)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s | %s |\n", formatFloat(all.MaxDrawdown), formatFloat(sel.MaxDrawdown)))
	sb.WriteString(fmt.Sprintf("| Avg Duration (min) | %s | %s |\n", formatFloat(all.AvgDurationMinutes), formatFloat(sel.AvgDurationMinutes)))
	sb.WriteString("\n")

	// Data Quality
	writeDataQuality(&sb, r)

	if r.FilteredRows == 0 {
		sb.WriteString("No trades in selection.\n")
		return sb.String()
	}

	writeEquityCurve(&sb, r.Summary.EquityCurve)
	writeWeekday(&sb, r.Summary.PnLByWeekday)
	writeHours(&sb, r.Summary.PnLByEntryHour)
	writeContractPnL(&sb, r.Summary.PnLByContract)
	writeWinRate(&sb, r.Summary.WinRateByContract)
	writePreview(&sb, r.Preview)

	return sb.String()
}

func writeDataQuality(sb *strings.Builder, r *Report) {
	q := r.Dataset.Quality

	sb.WriteString("## Data Quality\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Rows | %d |\n", q.TotalRows))
	sb.WriteString(fmt.Sprintf("| Columns | %s |\n", strings.Join(r.Dataset.Columns, ", ")))
	sb.WriteString(fmt.Sprintf("| First Trade Date | %s |\n", formatDate(r.Dataset.Baseline)))
	sb.WriteString(fmt.Sprintf("| Date Range | %s to %s |\n", formatDate(r.Dataset.FirstDate), formatDate(r.Dataset.LastDate)))
	sb.WriteString(fmt.Sprintf("| Unparseable Values | %d |\n", q.UnparseableTotal()))
	sb.WriteString(fmt.Sprintf("| Exits Before Entry | %d |\n", q.NegativeDurations))
	sb.WriteString("\n")

	if len(q.Unparseable) == 0 {
		return
	}

	columns := make([]string, 0, len(q.Unparseable))
	for c := range q.Unparseable {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	sb.WriteString("### Unparseable Values by Column\n\n")
	sb.WriteString("| Column | Count |\n")
	sb.WriteString("|--------|-------|\n")
	for _, c := range columns {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", c, q.Unparseable[c]))
	}
	sb.WriteString("\n")
}

func writeEquityCurve(sb *strings.Builder, t domain.Table[domain.EquityPoint]) {
	sb.WriteString("## Equity Curve\n\n")
	if !writeAvailability(sb, t.Available, t.Missing, len(t.Rows)) {
		return
	}
	sb.WriteString("| Date | Daily PnL | Cumulative PnL |\n")
	sb.WriteString("|------|-----------|----------------|\n")
	for _, p := range t.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f |\n", formatDate(p.Date), p.DailyPnL, p.CumulativePnL))
	}
	sb.WriteString("\n")
}

func writeWeekday(sb *strings.Builder, t domain.WeekdayTable) {
	sb.WriteString("## Average PnL by Weekday\n\n")
	if !writeAvailability(sb, t.Available, t.Missing, len(t.Rows)) {
		return
	}
	sb.WriteString("| Weekday | Trades | Mean PnL |\n")
	sb.WriteString("|---------|--------|----------|\n")
	for _, w := range t.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", w.Name, w.Trades, formatFloat(w.MeanPnL)))
	}
	if t.Unknown != nil {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", t.Unknown.Name, t.Unknown.Trades, formatFloat(t.Unknown.MeanPnL)))
	}
	sb.WriteString("\n")
}

func writeHours(sb *strings.Builder, t domain.Table[domain.HourPnL]) {
	sb.WriteString("## Average PnL by Entry Hour\n\n")
	if !writeAvailability(sb, t.Available, t.Missing, len(t.Rows)) {
		return
	}
	sb.WriteString("| Hour | Trades | Mean PnL |\n")
	sb.WriteString("|------|--------|----------|\n")
	for _, h := range t.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", formatInt(h.Hour), h.Trades, formatFloat(h.MeanPnL)))
	}
	sb.WriteString("\n")
}

func writeContractPnL(sb *strings.Builder, t domain.Table[domain.ContractPnL]) {
	sb.WriteString("## Average PnL by Contract\n\n")
	if !writeAvailability(sb, t.Available, t.Missing, len(t.Rows)) {
		return
	}
	sb.WriteString("| Contract | Trades | Mean PnL |\n")
	sb.WriteString("|----------|--------|----------|\n")
	for _, c := range t.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", formatString(c.Contract), c.Trades, formatFloat(c.MeanPnL)))
	}
	sb.WriteString("\n")
}

func writeWinRate(sb *strings.Builder, t domain.Table[domain.ContractWinRate]) {
	sb.WriteString("## Win Rate by Contract\n\n")
	if !writeAvailability(sb, t.Available, t.Missing, len(t.Rows)) {
		return
	}
	sb.WriteString("| Contract | Trades | Win Rate (%) |\n")
	sb.WriteString("|----------|--------|--------------|\n")
	for _, c := range t.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f |\n", formatString(c.Contract), c.Trades, c.WinRate))
	}
	sb.WriteString("\n")
}

func writePreview(sb *strings.Builder, records []domain.TradeRecord) {
	sb.WriteString(fmt.Sprintf("## Preview (first %d rows)\n\n", len(records)))
	if len(records) == 0 {
		sb.WriteString("No preview rows.\n\n")
		return
	}
	sb.WriteString("| Row | Contract | Entered | Exited | PnL | Fees | Net PnL | Duration (min) | Trade Day |\n")
	sb.WriteString("|-----|----------|---------|--------|-----|------|---------|----------------|-----------|\n")
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			rec.Row,
			formatString(rec.ContractName),
			formatTimestamp(rec.EnteredAt),
			formatTimestamp(rec.ExitedAt),
			formatFloat(rec.PnL),
			formatFloat(rec.Fees),
			formatFloat(rec.NetPnL),
			formatFloat(rec.DurationMinutes),
			formatDate(rec.EffectiveDate)))
	}
	sb.WriteString("\n")
}

// writeAvailability reports whether a table has rows to print.
func writeAvailability(sb *strings.Builder, available bool, missing []string, rows int) bool {
	if !available {
		sb.WriteString(fmt.Sprintf("Not available: missing %s.\n\n", strings.Join(missing, ", ")))
		return false
	}
	if rows == 0 {
		sb.WriteString("No data.\n\n")
		return false
	}
	return true
}

func formatFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}

func formatString(v *string) string {
	if v == nil {
		return "(none)"
	}
	return *v
}

func formatDate(v *time.Time) string {
	if v == nil {
		return "n/a"
	}
	return v.Format(dateLayout)
}

func formatTimestamp(v *time.Time) string {
	if v == nil {
		return "n/a"
	}
	return v.Format("2006-01-02 15:04:05")
}
