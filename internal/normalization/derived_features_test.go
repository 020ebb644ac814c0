package normalization

import (
	"reflect"
	"testing"
	"time"

	"trade-eda/internal/domain"
	"trade-eda/internal/ingestion"
)

func normalizeAndDerive(t *testing.T, raw *ingestion.RawTable) *domain.Dataset {
	t.Helper()
	ds, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return Derive(ds)
}

func esExample() *ingestion.RawTable {
	return &ingestion.RawTable{
		Columns: []string{"ContractName", "EnteredAt", "ExitedAt", "PnL", "Fees"},
		Rows: [][]any{
			{"ES", "2024-01-02T09:15:00", "2024-01-02T09:45:00", "100", "2"},
			{"ES", "2024-01-03T10:00:00", "2024-01-03T10:10:00", "-50", "2"},
		},
	}
}

func TestDerive_Example(t *testing.T) {
	ds := normalizeAndDerive(t, esExample())

	wantBaseline := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if ds.Baseline == nil || !ds.Baseline.Equal(wantBaseline) {
		t.Fatalf("Expected baseline %v, got %v", wantBaseline, ds.Baseline)
	}

	wantNet := []float64{98, -52}
	wantDays := []int{0, 1}
	wantMinutes := []float64{30, 10}
	wantHours := []int{9, 10}
	for i, r := range ds.Records {
		if r.NetPnL == nil || *r.NetPnL != wantNet[i] {
			t.Errorf("Row %d: expected net pnl %v, got %v", i, wantNet[i], r.NetPnL)
		}
		if r.DaysSinceFirstTrade == nil || *r.DaysSinceFirstTrade != wantDays[i] {
			t.Errorf("Row %d: expected days since first trade %d, got %v", i, wantDays[i], r.DaysSinceFirstTrade)
		}
		if r.DurationMinutes == nil || *r.DurationMinutes != wantMinutes[i] {
			t.Errorf("Row %d: expected duration %v min, got %v", i, wantMinutes[i], r.DurationMinutes)
		}
		if r.EntryHour == nil || *r.EntryHour != wantHours[i] {
			t.Errorf("Row %d: expected entry hour %d, got %v", i, wantHours[i], r.EntryHour)
		}
		if r.EffectiveDate == nil || !r.EffectiveDate.Equal(*r.EntryDate) {
			t.Errorf("Row %d: expected effective date to fall back to entry date, got %v", i, r.EffectiveDate)
		}
	}

	for _, col := range []domain.Column{
		domain.ColNetPnL, domain.ColDurationSeconds, domain.ColDurationMinutes,
		domain.ColEntryHour, domain.ColEntryDate, domain.ColEffectiveDate, domain.ColDaysSinceFirstTrade,
	} {
		if !ds.Schema.Has(col) {
			t.Errorf("Expected %v in schema", col)
		}
	}
}

func TestDerive_NetPnL(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		pnl  *float64
		fees *float64
		want *float64
	}{
		{"pnl and fees", f(10.5), f(0.25), f(10.25)},
		{"pnl only", f(-3), nil, f(-3)},
		{"fees only", nil, f(1), nil},
		{"neither", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveRecord(&domain.TradeRecord{PnL: tt.pnl, Fees: tt.fees}, false)
			switch {
			case tt.want == nil && got.NetPnL != nil:
				t.Errorf("Expected nil net pnl, got %v", *got.NetPnL)
			case tt.want != nil && (got.NetPnL == nil || *got.NetPnL != *tt.want):
				t.Errorf("Expected net pnl %v, got %v", *tt.want, got.NetPnL)
			}
		})
	}
}

func TestDerive_Idempotent(t *testing.T) {
	raw := esExample()
	raw.Rows = append(raw.Rows, []any{"NQ", "bad", "2024-01-04T10:00:00", "", "1"})

	once := normalizeAndDerive(t, raw)
	twice := Derive(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Derive is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	ds, err := Normalize(esExample())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	_ = Derive(ds)

	if ds.Records[0].NetPnL != nil || ds.Baseline != nil || ds.Schema.Has(domain.ColNetPnL) {
		t.Error("Derive modified its input")
	}
}

func TestDerive_UnparseableEnteredAt(t *testing.T) {
	raw := esExample()
	raw.Rows = append(raw.Rows, []any{"ES", "not a timestamp", "", "25", "2"})

	ds := normalizeAndDerive(t, raw)
	r := ds.Records[2]

	if r.EnteredAt != nil || r.EntryHour != nil || r.DaysSinceFirstTrade != nil {
		t.Errorf("Expected nil entered_at, entry_hour and days since first trade, got %v %v %v",
			r.EnteredAt, r.EntryHour, r.DaysSinceFirstTrade)
	}
	if r.NetPnL == nil || *r.NetPnL != 23 {
		t.Errorf("Expected net pnl 23, got %v", r.NetPnL)
	}
	if ds.Len() != 3 {
		t.Errorf("Expected row kept, got %d records", ds.Len())
	}
	if ds.Quality.Unparseable["EnteredAt"] != 1 {
		t.Errorf("Expected 1 unparseable EnteredAt, got %v", ds.Quality.Unparseable)
	}
}

func TestDerive_TradeDayColumnWins(t *testing.T) {
	raw := &ingestion.RawTable{
		Columns: []string{"EnteredAt", "TradeDay", "PnL"},
		Rows: [][]any{
			{"2024-01-05T23:30:00", "2024-01-05", "1"},
			{"2024-01-01T09:00:00", "", "2"},
		},
	}

	ds := normalizeAndDerive(t, raw)

	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := ds.Records[0].EffectiveDate; got == nil || !got.Equal(want) {
		t.Errorf("Row 0: expected effective date %v, got %v", want, got)
	}

	// A null trade day is not filled from entered_at once any row has one.
	if got := ds.Records[1].EffectiveDate; got != nil {
		t.Errorf("Row 1: expected no effective date, got %v", got)
	}
	if ds.Baseline == nil || !ds.Baseline.Equal(want) {
		t.Errorf("Expected baseline %v, got %v", want, ds.Baseline)
	}

	// Day offsets still come from entry dates.
	if d := ds.Records[0].DaysSinceFirstTrade; d == nil || *d != 0 {
		t.Errorf("Row 0: expected days since first trade 0, got %v", d)
	}
	if d := ds.Records[1].DaysSinceFirstTrade; d == nil || *d != -4 {
		t.Errorf("Row 1: expected days since first trade -4, got %v", d)
	}
}

func TestDerive_EnteredAtUsedWithoutTradeDays(t *testing.T) {
	raw := &ingestion.RawTable{
		Columns: []string{"EnteredAt", "TradeDay", "PnL"},
		Rows: [][]any{
			{"2024-01-05T23:30:00", "", "1"},
			{"2024-01-03T09:00:00", "not a date", "2"},
		},
	}

	ds := normalizeAndDerive(t, raw)

	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if got := ds.Records[1].EffectiveDate; got == nil || !got.Equal(want) {
		t.Errorf("Row 1: expected effective date %v, got %v", want, got)
	}
	if ds.Baseline == nil || !ds.Baseline.Equal(want) {
		t.Errorf("Expected baseline %v, got %v", want, ds.Baseline)
	}
	if d := ds.Records[0].DaysSinceFirstTrade; d == nil || *d != 2 {
		t.Errorf("Expected days since first trade 2, got %v", d)
	}
}

func TestDerive_NegativeDurationCounted(t *testing.T) {
	raw := &ingestion.RawTable{
		Columns: []string{"EnteredAt", "ExitedAt"},
		Rows: [][]any{
			{"2024-01-02T10:00:00", "2024-01-02T09:00:00"},
			{"2024-01-02T10:00:00", "2024-01-02T10:30:00"},
		},
	}

	ds := normalizeAndDerive(t, raw)

	if ds.Quality.NegativeDurations != 1 {
		t.Errorf("Expected 1 negative duration, got %d", ds.Quality.NegativeDurations)
	}
	if d := ds.Records[0].DurationSeconds; d == nil || *d != -3600 {
		t.Errorf("Expected duration -3600s passed through, got %v", d)
	}
}

func TestDerive_TradeDurationPreferred(t *testing.T) {
	raw := &ingestion.RawTable{
		Columns: []string{"EnteredAt", "ExitedAt", "TradeDuration"},
		Rows: [][]any{
			{"2024-01-02T10:00:00", "2024-01-02T10:30:00", "00:12:00"},
			{"2024-01-02T10:00:00", "2024-01-02T10:30:00", ""},
		},
	}

	ds := normalizeAndDerive(t, raw)

	if m := ds.Records[0].DurationMinutes; m == nil || *m != 12 {
		t.Errorf("Expected 12 minutes from trade duration, got %v", m)
	}
	if m := ds.Records[1].DurationMinutes; m == nil || *m != 30 {
		t.Errorf("Expected 30 minutes from timestamps, got %v", m)
	}
}

func TestDerive_SchemaGating(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		row     []any
		has     domain.Column
		missing domain.Column
	}{
		{
			name:    "pnl only",
			columns: []string{"PnL"},
			row:     []any{"1"},
			has:     domain.ColNetPnL,
			missing: domain.ColEntryHour | domain.ColEffectiveDate | domain.ColDurationSeconds | domain.ColDaysSinceFirstTrade,
		},
		{
			name:    "trade day only",
			columns: []string{"TradeDay", "PnL"},
			row:     []any{"2024-01-02", "1"},
			has:     domain.ColEffectiveDate | domain.ColNetPnL,
			missing: domain.ColEntryDate | domain.ColDaysSinceFirstTrade,
		},
		{
			name:    "entered without exit",
			columns: []string{"EnteredAt"},
			row:     []any{"2024-01-02T10:00:00"},
			has:     domain.ColEntryHour | domain.ColEntryDate | domain.ColEffectiveDate | domain.ColDaysSinceFirstTrade,
			missing: domain.ColDurationSeconds | domain.ColDurationMinutes | domain.ColNetPnL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := normalizeAndDerive(t, &ingestion.RawTable{Columns: tt.columns, Rows: [][]any{tt.row}})
			if !ds.Schema.Has(tt.has) {
				t.Errorf("Expected %v available, schema %v", tt.has, ds.Schema.Names())
			}
			if m := ds.Schema.Missing(tt.missing); m != tt.missing {
				t.Errorf("Expected %v unavailable, schema %v", tt.missing, ds.Schema.Names())
			}
		})
	}
}
