package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"trade-eda/internal/domain"
)

// Unavailable tables render as a header line only. Nil values are empty cells.

// RenderEquityCurveCSV renders the equity curve as CSV string.
func RenderEquityCurveCSV(t domain.Table[domain.EquityPoint]) string {
	rows := make([][]string, len(t.Rows))
	for i, p := range t.Rows {
		rows[i] = []string{csvDate(p.Date), csvNumber(p.DailyPnL), csvNumber(p.CumulativePnL)}
	}
	return renderCSV([]string{"date", "daily_pnl", "cumulative_pnl"}, rows)
}

// RenderWeekdayCSV renders mean pnl per weekday as CSV string, Monday first
// and the undated group last.
func RenderWeekdayCSV(t domain.WeekdayTable) string {
	rows := make([][]string, 0, len(t.Rows)+1)
	for _, w := range t.Rows {
		rows = append(rows, []string{w.Name, strconv.Itoa(w.Trades), csvFloat(w.MeanPnL)})
	}
	if t.Unknown != nil {
		rows = append(rows, []string{t.Unknown.Name, strconv.Itoa(t.Unknown.Trades), csvFloat(t.Unknown.MeanPnL)})
	}
	return renderCSV([]string{"weekday", "trades", "mean_pnl"}, rows)
}

// RenderHourCSV renders mean pnl per entry hour as CSV string.
func RenderHourCSV(t domain.Table[domain.HourPnL]) string {
	rows := make([][]string, len(t.Rows))
	for i, h := range t.Rows {
		hour := ""
		if h.Hour != nil {
			hour = strconv.Itoa(*h.Hour)
		}
		rows[i] = []string{hour, strconv.Itoa(h.Trades), csvFloat(h.MeanPnL)}
	}
	return renderCSV([]string{"entry_hour", "trades", "mean_pnl"}, rows)
}

// RenderContractPnLCSV renders mean pnl per contract as CSV string.
func RenderContractPnLCSV(t domain.Table[domain.ContractPnL]) string {
	rows := make([][]string, len(t.Rows))
	for i, c := range t.Rows {
		rows[i] = []string{csvString(c.Contract), strconv.Itoa(c.Trades), csvFloat(c.MeanPnL)}
	}
	return renderCSV([]string{"contract_name", "trades", "mean_pnl"}, rows)
}

// RenderWinRateCSV renders the per-contract win rate as CSV string.
func RenderWinRateCSV(t domain.Table[domain.ContractWinRate]) string {
	rows := make([][]string, len(t.Rows))
	for i, c := range t.Rows {
		rows[i] = []string{csvString(c.Contract), strconv.Itoa(c.Trades), csvNumber(c.WinRate)}
	}
	return renderCSV([]string{"contract_name", "trades", "win_rate"}, rows)
}

// RenderPreviewCSV renders normalized and derived trade records as CSV string.
func RenderPreviewCSV(records []domain.TradeRecord) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		duration := ""
		if r.TradeDuration != nil {
			duration = r.TradeDuration.String()
		}
		rows[i] = []string{
			strconv.Itoa(r.Row),
			csvString(r.ContractName),
			csvTimestamp(r.EnteredAt),
			csvTimestamp(r.ExitedAt),
			csvDate(r.TradeDay),
			csvFloat(r.PnL),
			csvFloat(r.Fees),
			duration,
			csvFloat(r.NetPnL),
			csvFloat(r.DurationSeconds),
			csvFloat(r.DurationMinutes),
			csvInt(r.EntryHour),
			csvDate(r.EntryDate),
			csvDate(r.EffectiveDate),
			csvInt(r.DaysSinceFirstTrade),
		}
	}
	return renderCSV([]string{
		"row", "contract_name", "entered_at", "exited_at", "trade_day", "pnl", "fees", "trade_duration",
		"net_pnl", "duration_seconds", "duration_minutes", "entry_hour", "entry_date", "effective_date",
		"days_since_first_trade",
	}, rows)
}

func renderCSV(header []string, rows [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	return sb.String()
}

func csvNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return csvNumber(*v)
}

func csvInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func csvString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func csvDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(dateLayout)
}

func csvTimestamp(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
