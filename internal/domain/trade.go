package domain

import "time"

// TradeRecord represents one row of a trade execution export.
// Nullable fields are pointers: nil means the value is unavailable, either
// because the column is missing or because the cell could not be parsed.
type TradeRecord struct {
	Row int `json:"row"` // zero-based position in the input table

	// Normalized input
	ContractName  *string        `json:"contract_name"`
	EnteredAt     *time.Time     `json:"entered_at"`
	ExitedAt      *time.Time     `json:"exited_at"`
	TradeDay      *time.Time     `json:"trade_day"`
	PnL           *float64       `json:"pnl"`
	Fees          *float64       `json:"fees"`
	TradeDuration *time.Duration `json:"trade_duration_ns"`

	// Derived
	NetPnL              *float64   `json:"net_pnl"`                // pnl - fees, pnl when fees unavailable
	DurationSeconds     *float64   `json:"duration_seconds"`       // exited_at - entered_at, may be negative
	DurationMinutes     *float64   `json:"duration_minutes"`       // trade_duration, else duration_seconds / 60
	EntryHour           *int       `json:"entry_hour"`             // 0-23
	EntryDate           *time.Time `json:"entry_date"`             // calendar date of entered_at
	EffectiveDate       *time.Time `json:"effective_date"`         // trade_day column when any row has one, else entry_date
	DaysSinceFirstTrade *int       `json:"days_since_first_trade"` // entry_date - baseline date
}

// CalendarDate floors a timestamp to midnight UTC, keeping the wall-clock
// date of the timestamp's own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Computed from Unix day numbers, so it does not saturate like Duration.
func DaysBetween(a, b time.Time) int {
	return int((CalendarDate(b).Unix() - CalendarDate(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
