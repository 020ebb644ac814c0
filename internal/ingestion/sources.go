package ingestion

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidTable is returned when the input is not a well-formed table
	// (no header, ragged rows, duplicate recognized columns).
	ErrInvalidTable = errors.New("input is not a well-formed table")

	// ErrNoData is returned when no input table could be obtained at all.
	ErrNoData = errors.New("no data loaded")
)

// Source provides a raw trade table from an external location.
type Source interface {
	// Name identifies the source for logs and reports. It never contains credentials.
	Name() string

	// Read acquires the source, reads the whole table and releases the source
	// before returning, whatever the outcome.
	Read(ctx context.Context) (*RawTable, error)
}

// RawTable is an untyped table: a header plus rows of raw cell values.
// Cell values are nil, string, []byte, bool, integer and float kinds,
// time.Time, time.Duration or decimal.Decimal.
type RawTable struct {
	Columns []string
	Rows    [][]any // each row aligned with Columns
}

// Validate checks the structural shape of the table.
func (t *RawTable) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidTable)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: missing header", ErrInvalidTable)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrInvalidTable, i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Value returns the cell at (row, col).
func (t *RawTable) Value(row, col int) any {
	return t.Rows[row][col]
}
