// Package filter selects the subset of a dataset a dashboard is computed on.
package filter

import (
	"sort"
	"time"

	"trade-eda/internal/domain"
)

// Params are the user-chosen filter parameters.
// Dates are compared by calendar date and both bounds are inclusive.
// An empty Contracts list means no contract filtering.
type Params struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Contracts []string  `json:"contracts,omitempty"`
}

// Apply returns the records whose effective date lies in [Start, End] and,
// when Contracts is non-empty, whose contract is one of Contracts. Rows
// without an effective date never pass a date filter. Input order is kept
// and dataset-level values (ID, schema, baseline, quality) are carried over.
func Apply(ds *domain.Dataset, p Params) *domain.Dataset {
	start := domain.CalendarDate(p.Start)
	end := domain.CalendarDate(p.End)

	var allowed map[string]struct{}
	if len(p.Contracts) > 0 {
		allowed = make(map[string]struct{}, len(p.Contracts))
		for _, c := range p.Contracts {
			allowed[c] = struct{}{}
		}
	}

	records := make([]domain.TradeRecord, 0, len(ds.Records))
	for _, r := range ds.Records {
		if r.EffectiveDate == nil {
			continue
		}
		if r.EffectiveDate.Before(start) || r.EffectiveDate.After(end) {
			continue
		}
		if allowed != nil {
			if r.ContractName == nil {
				continue
			}
			if _, ok := allowed[*r.ContractName]; !ok {
				continue
			}
		}
		records = append(records, r)
	}

	return ds.WithRecords(records)
}

// FullRange returns the earliest and latest effective dates in ds.
// ok is false when no row has an effective date.
func FullRange(ds *domain.Dataset) (start, end time.Time, ok bool) {
	for _, r := range ds.Records {
		if r.EffectiveDate == nil {
			continue
		}
		d := *r.EffectiveDate
		if !ok {
			start, end, ok = d, d, true
			continue
		}
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end, ok
}

// DefaultParams covers the full date range of ds with no contract filter.
// When ds has no dated rows the range collapses to today.
func DefaultParams(ds *domain.Dataset, today time.Time) Params {
	start, end, ok := FullRange(ds)
	if !ok {
		start = domain.CalendarDate(today)
		end = start
	}
	return Params{Start: start, End: end}
}

// ContractOptions lists the distinct contract names in ds, sorted.
func ContractOptions(ds *domain.Dataset) []string {
	seen := make(map[string]struct{})
	for _, r := range ds.Records {
		if r.ContractName != nil {
			seen[*r.ContractName] = struct{}{}
		}
	}

	options := make([]string, 0, len(seen))
	for c := range seen {
		options = append(options, c)
	}
	sort.Strings(options)
	return options
}
