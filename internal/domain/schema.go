package domain

import "strings"

// Column identifies a field of TradeRecord that may or may not be available
// in a dataset. Columns are bit flags so a Schema is a plain value.
type Column uint32

// Input columns
const (
	ColContractName Column = 1 << iota
	ColEnteredAt
	ColExitedAt
	ColTradeDay
	ColPnL
	ColFees
	ColTradeDuration

	// Derived columns
	ColNetPnL
	ColDurationSeconds
	ColDurationMinutes
	ColEntryHour
	ColEntryDate
	ColEffectiveDate
	ColDaysSinceFirstTrade
)

// InputColumns is the set of columns the normalizer recognizes.
const InputColumns = ColContractName | ColEnteredAt | ColExitedAt | ColTradeDay | ColPnL | ColFees | ColTradeDuration

// DerivedColumns is the set of columns produced by the feature deriver.
const DerivedColumns = ColNetPnL | ColDurationSeconds | ColDurationMinutes | ColEntryHour |
	ColEntryDate | ColEffectiveDate | ColDaysSinceFirstTrade

var columnNames = []struct {
	col  Column
	name string
}{
	{ColContractName, "ContractName"},
	{ColEnteredAt, "EnteredAt"},
	{ColExitedAt, "ExitedAt"},
	{ColTradeDay, "TradeDay"},
	{ColPnL, "PnL"},
	{ColFees, "Fees"},
	{ColTradeDuration, "TradeDuration"},
	{ColNetPnL, "NetPnL"},
	{ColDurationSeconds, "DurationSeconds"},
	{ColDurationMinutes, "DurationMinutes"},
	{ColEntryHour, "EntryHour"},
	{ColEntryDate, "EntryDate"},
	{ColEffectiveDate, "EffectiveDate"},
	{ColDaysSinceFirstTrade, "DaysSinceFirstTrade"},
}

// String returns the canonical column name, or a "|"-joined list for a set.
func (c Column) String() string {
	var names []string
	for _, cn := range columnNames {
		if c&cn.col != 0 {
			names = append(names, cn.name)
		}
	}
	return strings.Join(names, "|")
}

// LookupInputColumn maps a header cell to a recognized input column.
// Matching ignores case and surrounding whitespace.
func LookupInputColumn(header string) (Column, bool) {
	h := strings.TrimSpace(header)
	for _, cn := range columnNames {
		if cn.col&InputColumns == 0 {
			continue
		}
		if strings.EqualFold(h, cn.name) {
			return cn.col, true
		}
	}
	return 0, false
}

// Schema is the set of columns available in a dataset.
type Schema Column

// Has reports whether every column in cols is available.
func (s Schema) Has(cols Column) bool {
	return Column(s)&cols == cols
}

// Missing returns the columns of cols that are not available.
func (s Schema) Missing(cols Column) Column {
	return cols &^ Column(s)
}

// With returns a schema with cols added.
func (s Schema) With(cols Column) Schema {
	return Schema(Column(s) | cols)
}

// Without returns a schema with cols removed.
func (s Schema) Without(cols Column) Schema {
	return Schema(Column(s) &^ cols)
}

// Names lists available columns in canonical order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(columnNames))
	for _, cn := range columnNames {
		if s.Has(cn.col) {
			names = append(names, cn.name)
		}
	}
	return names
}

// ColumnNames splits a column set into canonical names.
func ColumnNames(cols Column) []string {
	return Schema(cols).Names()
}
