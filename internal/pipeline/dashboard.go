package pipeline

import (
	"time"

	"trade-eda/internal/domain"
	"trade-eda/internal/filter"
	"trade-eda/internal/metrics"
	"trade-eda/internal/observability"
)

// DefaultPreviewRows is the number of filtered rows shown in a view.
const DefaultPreviewRows = 50

// DatasetInfo describes a loaded dataset independently of any filter.
type DatasetInfo struct {
	ID        string             `json:"id"`
	Source    string             `json:"source"`
	Rows      int                `json:"rows"`
	Columns   []string           `json:"columns"`
	Baseline  *time.Time         `json:"baseline_date"`
	FirstDate *time.Time         `json:"first_date"` // full effective-date range, nil when undated
	LastDate  *time.Time         `json:"last_date"`
	Contracts []string           `json:"contracts"`
	Quality   domain.DataQuality `json:"quality"`
}

// View is everything a rendering layer needs for one dashboard.
// Overall KPIs cover the whole dataset; Summary covers the filtered rows.
type View struct {
	Dataset      DatasetInfo          `json:"dataset"`
	Params       filter.Params        `json:"params"`
	FilteredRows int                  `json:"filtered_rows"`
	Overall      domain.KPIs          `json:"overall"`
	Summary      *domain.Summary      `json:"summary"`
	Preview      []domain.TradeRecord `json:"preview"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// Describe summarizes ds for listing and filter pre-filling.
func Describe(ds *domain.Dataset) DatasetInfo {
	info := DatasetInfo{
		ID:        ds.ID,
		Source:    ds.Source,
		Rows:      ds.Len(),
		Columns:   ds.Schema.Names(),
		Baseline:  ds.Baseline,
		Contracts: filter.ContractOptions(ds),
		Quality:   ds.Quality,
	}
	if first, last, ok := filter.FullRange(ds); ok {
		info.FirstDate = &first
		info.LastDate = &last
	}
	return info
}

// Dashboard composes filter and aggregation into a View.
type Dashboard struct {
	aggregator  *metrics.Aggregator
	previewRows int
	now         func() time.Time // Injectable clock for deterministic output
}

// NewDashboard creates a dashboard builder. Today is the local calendar
// date unless WithLocation says otherwise.
func NewDashboard() *Dashboard {
	return &Dashboard{
		aggregator:  metrics.NewAggregator(),
		previewRows: DefaultPreviewRows,
		now:         time.Now,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	d.aggregator = d.aggregator.WithClock(now)
	return d
}

// WithLocation sets the time zone used for today's date in days opened and
// the default filter range.
func (d *Dashboard) WithLocation(loc *time.Location) *Dashboard {
	d.aggregator = d.aggregator.WithLocation(loc)
	return d
}

// WithPreviewRows sets the number of preview rows. Negative means none.
func (d *Dashboard) WithPreviewRows(n int) *Dashboard {
	d.previewRows = n
	return d
}

// WithTopContracts sets the win-rate-by-contract table limit.
func (d *Dashboard) WithTopContracts(n int) *Dashboard {
	d.aggregator = d.aggregator.WithTopContracts(n)
	return d
}

// DefaultParams returns the filter a fresh dashboard starts from.
func (d *Dashboard) DefaultParams(ds *domain.Dataset) filter.Params {
	return filter.DefaultParams(ds, d.aggregator.Today())
}

// Build filters ds with params and aggregates the result. A nil params
// uses DefaultParams.
func (d *Dashboard) Build(ds *domain.Dataset, params *filter.Params) *View {
	return d.BuildWithPreview(ds, params, d.previewRows)
}

// BuildWithPreview is Build with a per-call preview row limit.
func (d *Dashboard) BuildWithPreview(ds *domain.Dataset, params *filter.Params, previewRows int) *View {
	p := d.DefaultParams(ds)
	if params != nil {
		p = *params
	}

	start := time.Now()
	filtered := filter.Apply(ds, p)
	observability.RecordStage("filter", time.Since(start).Seconds())

	start = time.Now()
	summary := d.aggregator.Compute(filtered)
	overall := d.aggregator.KPIs(ds)
	observability.RecordStage("aggregate", time.Since(start).Seconds())
	observability.RecordDashboardComputed()

	n := previewRows
	if n < 0 {
		n = 0
	}
	if n > filtered.Len() {
		n = filtered.Len()
	}

	return &View{
		Dataset:      Describe(ds),
		Params:       p,
		FilteredRows: filtered.Len(),
		Overall:      overall,
		Summary:      summary,
		Preview:      filtered.Records[:n:n],
		GeneratedAt:  d.now().UTC(),
	}
}
