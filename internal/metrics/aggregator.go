package metrics

import (
	"time"

	"trade-eda/internal/domain"
)

// Aggregator computes the full dashboard summary of a dataset.
type Aggregator struct {
	now          func() time.Time // Injectable clock for days-opened
	loc          *time.Location   // location of "today"
	topContracts int
}

// NewAggregator creates an aggregator using the wall clock in the local
// time zone and DefaultTopContracts.
func NewAggregator() *Aggregator {
	return &Aggregator{
		now:          time.Now,
		loc:          time.Local,
		topContracts: DefaultTopContracts,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// WithLocation sets the time zone whose calendar date counts as today.
func (a *Aggregator) WithLocation(loc *time.Location) *Aggregator {
	if loc != nil {
		a.loc = loc
	}
	return a
}

// Today returns the current instant in the aggregator's location.
func (a *Aggregator) Today() time.Time {
	return a.now().In(a.loc)
}

// WithTopContracts sets the size limit of the win-rate-by-contract table.
func (a *Aggregator) WithTopContracts(n int) *Aggregator {
	a.topContracts = n
	return a
}

// Compute runs every KPI and grouped aggregate over ds. Outputs whose
// inputs are unavailable are reported as unavailable; the others are
// unaffected. An empty dataset yields empty tables and nil scalars.
func (a *Aggregator) Compute(ds *domain.Dataset) *domain.Summary {
	curve := EquityCurve(ds)

	return &domain.Summary{
		DatasetID:         ds.ID,
		Baseline:          ds.Baseline,
		KPIs:              a.kpis(ds, curve),
		EquityCurve:       curve,
		PnLByWeekday:      AvgPnLByWeekday(ds),
		PnLByEntryHour:    AvgPnLByEntryHour(ds),
		PnLByContract:     AvgPnLByContract(ds),
		WinRateByContract: WinRateByContract(ds, a.topContracts),
	}
}

// KPIs computes the scalar indicators only.
func (a *Aggregator) KPIs(ds *domain.Dataset) domain.KPIs {
	return a.kpis(ds, EquityCurve(ds))
}

func (a *Aggregator) kpis(ds *domain.Dataset, curve domain.Table[domain.EquityPoint]) domain.KPIs {
	return domain.KPIs{
		DaysOpened:         DaysOpened(ds, a.Today()),
		TotalTrades:        TotalTrades(ds),
		WinRate:            WinRate(ds),
		CumulativePnL:      CumulativePnL(ds),
		TotalFees:          TotalFees(ds),
		MaxDrawdown:        curveDrawdown(curve),
		AvgDurationMinutes: AvgDurationMinutes(ds),
	}
}
