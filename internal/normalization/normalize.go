package normalization

import (
	"fmt"

	"trade-eda/internal/domain"
	"trade-eda/internal/idhash"
	"trade-eda/internal/ingestion"
)

// Normalize maps a raw table onto the canonical trade schema.
//
// Header cells are matched case-insensitively; unrecognized columns are
// ignored. Every cell of a recognized column is coerced to its canonical
// type: a cell that is present but cannot be interpreted becomes nil and is
// counted in Quality.Unparseable, it never fails the whole load. A table
// that names the same recognized column twice is rejected.
//
// The returned dataset carries input fields only; run Derive on it to
// populate derived fields. Its ID is the fingerprint of the raw table.
func Normalize(raw *ingestion.RawTable) (*domain.Dataset, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	mapping := make([]domain.Column, len(raw.Columns))
	var schema domain.Schema
	for i, header := range raw.Columns {
		col, ok := domain.LookupInputColumn(header)
		if !ok {
			continue
		}
		if schema.Has(col) {
			return nil, fmt.Errorf("%w: duplicate column %q", ingestion.ErrInvalidTable, col)
		}
		schema = schema.With(col)
		mapping[i] = col
	}

	quality := domain.DataQuality{
		TotalRows:   len(raw.Rows),
		Unparseable: make(map[string]int),
	}

	records := make([]domain.TradeRecord, len(raw.Rows))
	for r, row := range raw.Rows {
		rec := domain.TradeRecord{Row: r}
		for c, col := range mapping {
			if col == 0 {
				continue
			}
			if bad := assign(&rec, col, row[c]); bad {
				quality.Unparseable[col.String()]++
			}
		}
		records[r] = rec
	}

	return &domain.Dataset{
		ID:      idhash.ComputeDatasetID(raw.Columns, raw.Rows),
		Schema:  schema,
		Records: records,
		Quality: quality,
	}, nil
}

// assign coerces v into the field for col and reports whether v was present
// but unparseable.
func assign(rec *domain.TradeRecord, col domain.Column, v any) bool {
	var bad bool
	switch col {
	case domain.ColContractName:
		rec.ContractName, bad = coerceString(v)
	case domain.ColEnteredAt:
		rec.EnteredAt, bad = coerceTime(v)
	case domain.ColExitedAt:
		rec.ExitedAt, bad = coerceTime(v)
	case domain.ColTradeDay:
		rec.TradeDay, bad = coerceTime(v)
	case domain.ColPnL:
		rec.PnL, bad = coerceNumber(v)
	case domain.ColFees:
		rec.Fees, bad = coerceNumber(v)
	case domain.ColTradeDuration:
		rec.TradeDuration, bad = coerceDuration(v)
	}
	return bad
}
