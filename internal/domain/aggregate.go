package domain

import "time"

// Table is an ordered aggregate output. Available is false when the dataset
// lacks a column the aggregate needs; Missing then names those columns.
// An available table may still have zero rows.
type Table[T any] struct {
	Available bool     `json:"available"`
	Missing   []string `json:"missing,omitempty"`
	Rows      []T      `json:"rows"`
}

// Unavailable builds a table marked as not computable.
func Unavailable[T any](missing Column) Table[T] {
	return Table[T]{Missing: ColumnNames(missing)}
}

// KPIs is the scalar indicator bundle. Nil pointers are unavailable values.
type KPIs struct {
	DaysOpened         *int     `json:"days_opened"`
	TotalTrades        int      `json:"total_trades"`
	WinRate            *float64 `json:"win_rate"`       // percent
	CumulativePnL      *float64 `json:"cumulative_pnl"` // sum of net pnl
	TotalFees          *float64 `json:"total_fees"`
	MaxDrawdown        *float64 `json:"max_drawdown"` // peak-to-trough on the daily equity curve
	AvgDurationMinutes *float64 `json:"avg_duration_minutes"`
}

// EquityPoint is one day of the equity curve. Date is nil for the group of
// rows without an effective date, which always sorts last.
type EquityPoint struct {
	Date          *time.Time `json:"date"`
	DailyPnL      float64    `json:"daily_pnl"`
	CumulativePnL float64    `json:"cumulative_pnl"`
}

// WeekdayPnL is the mean pnl of trades on one weekday.
type WeekdayPnL struct {
	Weekday time.Weekday `json:"weekday"`
	Name    string       `json:"name"`
	Trades  int          `json:"trades"`
	MeanPnL *float64     `json:"mean_pnl"`
}

// WeekdayTable always carries seven rows, Monday through Sunday.
// Trades without an effective date are reported in Unknown.
type WeekdayTable struct {
	Table[WeekdayPnL]
	Unknown *WeekdayPnL `json:"unknown,omitempty"`
}

// HourPnL is the mean pnl of trades entered during one hour of day.
// Hour is nil for trades without an entry time.
type HourPnL struct {
	Hour    *int     `json:"hour"`
	Trades  int      `json:"trades"`
	MeanPnL *float64 `json:"mean_pnl"`
}

// ContractPnL is the mean pnl of one contract. Contract is nil for trades
// without a contract name.
type ContractPnL struct {
	Contract *string  `json:"contract"`
	Trades   int      `json:"trades"`
	MeanPnL  *float64 `json:"mean_pnl"`
}

// ContractWinRate is the trade count and win rate of one contract.
type ContractWinRate struct {
	Contract *string `json:"contract"`
	Trades   int     `json:"trades"`
	WinRate  float64 `json:"win_rate"` // percent of trades with pnl > 0
}

// Summary bundles every aggregate computed from one dataset view.
type Summary struct {
	DatasetID         string                 `json:"dataset_id"`
	Baseline          *time.Time             `json:"baseline_date"`
	KPIs              KPIs                   `json:"kpis"`
	EquityCurve       Table[EquityPoint]     `json:"equity_curve"`
	PnLByWeekday      WeekdayTable           `json:"pnl_by_weekday"`
	PnLByEntryHour    Table[HourPnL]         `json:"pnl_by_entry_hour"`
	PnLByContract     Table[ContractPnL]     `json:"pnl_by_contract"`
	WinRateByContract Table[ContractWinRate] `json:"win_rate_by_contract"`
}
