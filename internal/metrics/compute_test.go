package metrics

import (
	"math"
	"testing"
	"time"

	"trade-eda/internal/domain"
	"trade-eda/internal/ingestion"
	"trade-eda/internal/normalization"
)

// buildDataset normalizes and derives a table for aggregation tests.
func buildDataset(t *testing.T, columns []string, rows ...[]any) *domain.Dataset {
	t.Helper()
	ds, err := normalization.Normalize(&ingestion.RawTable{Columns: columns, Rows: rows})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return normalization.Derive(ds)
}

var exampleColumns = []string{"ContractName", "EnteredAt", "ExitedAt", "PnL", "Fees"}

func exampleDataset(t *testing.T) *domain.Dataset {
	return buildDataset(t, exampleColumns,
		[]any{"ES", "2024-01-02T09:15:00", "2024-01-02T09:45:00", "100", "2"},
		[]any{"ES", "2024-01-03T10:00:00", "2024-01-03T10:10:00", "-50", "2"},
	)
}

func TestKPIs_Example(t *testing.T) {
	ds := exampleDataset(t)

	if n := TotalTrades(ds); n != 2 {
		t.Errorf("Expected 2 trades, got %d", n)
	}
	if wr := WinRate(ds); wr == nil || *wr != 50 {
		t.Errorf("Expected win rate 50, got %v", wr)
	}
	if c := CumulativePnL(ds); c == nil || *c != 46 {
		t.Errorf("Expected cumulative pnl 46, got %v", c)
	}
	if f := TotalFees(ds); f == nil || *f != 4 {
		t.Errorf("Expected total fees 4, got %v", f)
	}
	if d := AvgDurationMinutes(ds); d == nil || *d != 20 {
		t.Errorf("Expected avg duration 20 min, got %v", d)
	}
	if dd := MaxDrawdown(ds); dd == nil || *dd != 52 {
		t.Errorf("Expected max drawdown 52, got %v", dd)
	}
}

func TestDaysOpened(t *testing.T) {
	ds := exampleDataset(t)

	today := time.Date(2024, 1, 12, 18, 0, 0, 0, time.UTC)
	if d := DaysOpened(ds, today); d == nil || *d != 10 {
		t.Errorf("Expected 10 days opened, got %v", d)
	}

	if d := DaysOpened(&domain.Dataset{}, today); d != nil {
		t.Errorf("Expected nil without baseline, got %d", *d)
	}
}

func TestWinRate_UnknownPnLExcluded(t *testing.T) {
	ds := buildDataset(t, []string{"PnL"},
		[]any{"10"},
		[]any{"-5"},
		[]any{"0"},
		[]any{"bad"},
		[]any{""},
		[]any{"3"},
	)

	// 2 wins out of 4 known; zero is not a win.
	if wr := WinRate(ds); wr == nil || *wr != 50 {
		t.Errorf("Expected win rate 50, got %v", wr)
	}
	if n := TotalTrades(ds); n != 6 {
		t.Errorf("Expected every row counted, got %d", n)
	}
}

func TestWinRate_NoKnownPnL(t *testing.T) {
	ds := buildDataset(t, []string{"PnL"}, []any{""}, []any{"x"})

	if wr := WinRate(ds); wr != nil {
		t.Errorf("Expected nil win rate, got %v", *wr)
	}
	if c := CumulativePnL(ds); c == nil || *c != 0 {
		t.Errorf("Expected cumulative pnl 0 with null values, got %v", c)
	}
}

func TestKPIs_Unavailable(t *testing.T) {
	ds := buildDataset(t, []string{"ContractName"}, []any{"ES"})

	if WinRate(ds) != nil || CumulativePnL(ds) != nil || TotalFees(ds) != nil ||
		AvgDurationMinutes(ds) != nil || MaxDrawdown(ds) != nil || DaysOpened(ds, time.Now()) != nil {
		t.Error("Expected nil KPIs without pnl, fees or timestamps")
	}
	if n := TotalTrades(ds); n != 1 {
		t.Errorf("Expected 1 trade, got %d", n)
	}
}

func TestKPIs_EmptyDataset(t *testing.T) {
	ds := buildDataset(t, exampleColumns)

	if n := TotalTrades(ds); n != 0 {
		t.Errorf("Expected 0 trades, got %d", n)
	}
	if wr := WinRate(ds); wr != nil {
		t.Errorf("Expected nil win rate, got %v", *wr)
	}
	if c := CumulativePnL(ds); c == nil || *c != 0 {
		t.Errorf("Expected cumulative pnl 0, got %v", c)
	}
	if d := DaysOpened(ds, time.Now()); d != nil {
		t.Errorf("Expected nil days opened, got %d", *d)
	}
}

func TestComputeMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []float64
		want     float64
	}{
		{"empty", nil, 0},
		{"only gains", []float64{1, 2, 3}, 0},
		{"single drop", []float64{10, -4, 1}, 4},
		{"drop below start", []float64{-5, -5, 20}, 10},
		{"two peaks", []float64{10, -3, 8, -12, 1}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeMaxDrawdown(tt.outcomes)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComputeMean(t *testing.T) {
	if got := computeMean(nil); got != 0 {
		t.Errorf("Expected 0 for empty input, got %v", got)
	}
	if got := computeMean([]float64{1, 2, 6}); got != 3 {
		t.Errorf("Expected 3, got %v", got)
	}
}
