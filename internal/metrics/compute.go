package metrics

import (
	"time"

	"trade-eda/internal/domain"
)

// DaysOpened returns the whole days from the dataset baseline to today.
// Returns nil when the dataset has no baseline. Depends on the clock, so
// callers must not memoize it.
func DaysOpened(ds *domain.Dataset, today time.Time) *int {
	if ds.Baseline == nil {
		return nil
	}
	days := domain.DaysBetween(*ds.Baseline, today)
	return &days
}

// TotalTrades counts every row, including rows with unavailable values.
func TotalTrades(ds *domain.Dataset) int {
	return ds.Len()
}

// WinRate returns the percentage of trades with pnl > 0 among trades with a
// known pnl. Returns nil when pnl is unavailable or no trade has a pnl.
func WinRate(ds *domain.Dataset) *float64 {
	if !ds.Schema.Has(domain.ColPnL) {
		return nil
	}

	wins, known := 0, 0
	for _, r := range ds.Records {
		if r.PnL == nil {
			continue
		}
		known++
		if *r.PnL > 0 {
			wins++
		}
	}
	if known == 0 {
		return nil
	}

	rate := computeWinRate(wins, known)
	return &rate
}

// CumulativePnL sums net pnl, counting unavailable values as zero.
// Returns nil only when net pnl is not derivable for the dataset.
func CumulativePnL(ds *domain.Dataset) *float64 {
	if !ds.Schema.Has(domain.ColNetPnL) {
		return nil
	}

	sum := 0.0
	for _, r := range ds.Records {
		if r.NetPnL != nil {
			sum += *r.NetPnL
		}
	}
	return &sum
}

// TotalFees sums fees, counting unavailable values as zero.
func TotalFees(ds *domain.Dataset) *float64 {
	if !ds.Schema.Has(domain.ColFees) {
		return nil
	}

	sum := 0.0
	for _, r := range ds.Records {
		if r.Fees != nil {
			sum += *r.Fees
		}
	}
	return &sum
}

// AvgDurationMinutes is the mean trade duration over trades with a known duration.
func AvgDurationMinutes(ds *domain.Dataset) *float64 {
	if !ds.Schema.Has(domain.ColDurationMinutes) {
		return nil
	}

	var durations []float64
	for _, r := range ds.Records {
		if r.DurationMinutes != nil {
			durations = append(durations, *r.DurationMinutes)
		}
	}
	if len(durations) == 0 {
		return nil
	}

	mean := computeMean(durations)
	return &mean
}

// MaxDrawdown is the worst peak-to-trough fall of the daily equity curve.
func MaxDrawdown(ds *domain.Dataset) *float64 {
	return curveDrawdown(EquityCurve(ds))
}

func curveDrawdown(curve domain.Table[domain.EquityPoint]) *float64 {
	if !curve.Available {
		return nil
	}

	daily := make([]float64, len(curve.Rows))
	for i, p := range curve.Rows {
		daily[i] = p.DailyPnL
	}

	dd := computeMaxDrawdown(daily)
	return &dd
}

// computeWinRate returns wins / total as a percentage.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(wins) / float64(total)
}

// computeMean calculates the arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative outcomes.
// max_drawdown = MAX(peak_cumulative - trough_cumulative)
// Outcomes must be in chronological order.
func computeMaxDrawdown(outcomes []float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}

	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, o := range outcomes {
		cumulative += o
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
