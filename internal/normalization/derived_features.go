package normalization

import (
	"time"

	"trade-eda/internal/domain"
)

// Derive computes every derived field of a normalized dataset.
//
// Derived values are computed from input fields only, so Derive(Derive(ds))
// equals Derive(ds). The input is not modified.
//
// Formulas:
//   - net_pnl = pnl - fees, pnl when fees is null, null when pnl is null
//   - duration_seconds = exited_at - entered_at, negative values kept
//   - duration_minutes = trade_duration in minutes, else duration_seconds / 60
//   - entry_hour, entry_date = hour and calendar date of entered_at
//   - effective_date = calendar date of trade_day when any row has a trade
//     day, else entry_date for every row
//   - days_since_first_trade = entry_date - baseline, in whole days
//
// The effective date column is chosen once per dataset. Rows with a null
// trade_day stay undated when the trade_day column is in use. The baseline
// is the earliest effective_date.
func Derive(ds *domain.Dataset) *domain.Dataset {
	out := &domain.Dataset{
		ID:      ds.ID,
		Source:  ds.Source,
		Records: make([]domain.TradeRecord, len(ds.Records)),
		Quality: domain.DataQuality{
			TotalRows:   ds.Quality.TotalRows,
			Unparseable: copyCounts(ds.Quality.Unparseable),
		},
	}

	byTradeDay := hasTradeDay(ds.Records)
	for i := range ds.Records {
		rec := deriveRecord(&ds.Records[i], byTradeDay)
		if rec.DurationSeconds != nil && *rec.DurationSeconds < 0 {
			out.Quality.NegativeDurations++
		}
		out.Records[i] = rec
	}

	out.Baseline = computeBaseline(out.Records)
	if out.Baseline != nil {
		for i := range out.Records {
			rec := &out.Records[i]
			if rec.EntryDate == nil {
				continue
			}
			days := domain.DaysBetween(*out.Baseline, *rec.EntryDate)
			rec.DaysSinceFirstTrade = &days
		}
	}

	out.Schema = deriveSchema(ds.Schema, out.Baseline != nil)
	return out
}

// deriveRecord copies the input fields of r and computes the per-row
// derived fields. byTradeDay selects trade_day as the effective date
// column. DaysSinceFirstTrade needs the dataset baseline and is filled in
// by Derive.
func deriveRecord(r *domain.TradeRecord, byTradeDay bool) domain.TradeRecord {
	d := domain.TradeRecord{
		Row:           r.Row,
		ContractName:  r.ContractName,
		EnteredAt:     r.EnteredAt,
		ExitedAt:      r.ExitedAt,
		TradeDay:      r.TradeDay,
		PnL:           r.PnL,
		Fees:          r.Fees,
		TradeDuration: r.TradeDuration,
	}

	if d.PnL != nil {
		net := *d.PnL
		if d.Fees != nil {
			net -= *d.Fees
		}
		d.NetPnL = &net
	}

	if d.EnteredAt != nil && d.ExitedAt != nil {
		secs := d.ExitedAt.Sub(*d.EnteredAt).Seconds()
		d.DurationSeconds = &secs
	}

	switch {
	case d.TradeDuration != nil:
		mins := d.TradeDuration.Minutes()
		d.DurationMinutes = &mins
	case d.DurationSeconds != nil:
		mins := *d.DurationSeconds / 60
		d.DurationMinutes = &mins
	}

	if d.EnteredAt != nil {
		hour := d.EnteredAt.Hour()
		date := domain.CalendarDate(*d.EnteredAt)
		d.EntryHour = &hour
		d.EntryDate = &date
	}

	switch {
	case byTradeDay:
		if d.TradeDay != nil {
			date := domain.CalendarDate(*d.TradeDay)
			d.EffectiveDate = &date
		}
	case d.EntryDate != nil:
		date := *d.EntryDate
		d.EffectiveDate = &date
	}

	return d
}

// hasTradeDay reports whether any record carries a parsed trade day.
func hasTradeDay(records []domain.TradeRecord) bool {
	for i := range records {
		if records[i].TradeDay != nil {
			return true
		}
	}
	return false
}

// computeBaseline returns the earliest effective date: the earliest trade
// day when the trade_day column is in use, else the earliest entry date.
func computeBaseline(records []domain.TradeRecord) *time.Time {
	var earliest *time.Time
	for i := range records {
		v := records[i].EffectiveDate
		if v == nil {
			continue
		}
		if earliest == nil || v.Before(*earliest) {
			t := *v
			earliest = &t
		}
	}
	return earliest
}

// deriveSchema drops any derived bits and recomputes them from input bits.
func deriveSchema(s domain.Schema, hasBaseline bool) domain.Schema {
	out := domain.Schema(domain.Column(s) & domain.InputColumns)

	if out.Has(domain.ColPnL) {
		out = out.With(domain.ColNetPnL)
	}
	if out.Has(domain.ColEnteredAt | domain.ColExitedAt) {
		out = out.With(domain.ColDurationSeconds)
	}
	if out.Has(domain.ColTradeDuration) || out.Has(domain.ColDurationSeconds) {
		out = out.With(domain.ColDurationMinutes)
	}
	if out.Has(domain.ColEnteredAt) {
		out = out.With(domain.ColEntryHour | domain.ColEntryDate)
	}
	if out.Has(domain.ColTradeDay) || out.Has(domain.ColEnteredAt) {
		out = out.With(domain.ColEffectiveDate)
	}
	if out.Has(domain.ColEnteredAt) && hasBaseline {
		out = out.With(domain.ColDaysSinceFirstTrade)
	}
	return out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
