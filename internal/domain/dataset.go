package domain

import "time"

// Dataset is an ordered, immutable collection of trade records plus the
// values computed across the whole table.
type Dataset struct {
	ID       string        // content fingerprint of the raw input
	Source   string        // human-readable source name
	Schema   Schema        // available columns
	Records  []TradeRecord // input order, no implied chronology
	Baseline *time.Time    // earliest effective trading date, nil if undefined
	Quality  DataQuality
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// WithRecords returns a view sharing everything but the record slice.
// Baseline is carried over unchanged so day offsets stay stable.
func (d *Dataset) WithRecords(records []TradeRecord) *Dataset {
	view := *d
	view.Records = records
	return &view
}

// DataQuality summarizes values that were recovered as null or accepted
// despite looking wrong.
type DataQuality struct {
	TotalRows         int            `json:"total_rows"`
	Unparseable       map[string]int `json:"unparseable,omitempty"` // column name -> cells present but not parseable
	NegativeDurations int            `json:"negative_durations"`    // rows with exited_at before entered_at
}

// UnparseableTotal sums unparseable cells across columns.
func (q DataQuality) UnparseableTotal() int {
	n := 0
	for _, c := range q.Unparseable {
		n += c
	}
	return n
}
