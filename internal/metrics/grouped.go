package metrics

import (
	"sort"
	"time"

	"trade-eda/internal/domain"
)

// DefaultTopContracts is the number of contracts kept by WinRateByContract
// when no limit is given.
const DefaultTopContracts = 15

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// groupStats accumulates one group of records.
type groupStats struct {
	trades int
	pnl    []float64 // known pnl values
	wins   int
}

func (g *groupStats) add(r *domain.TradeRecord) {
	g.trades++
	if r.PnL != nil {
		g.pnl = append(g.pnl, *r.PnL)
		if *r.PnL > 0 {
			g.wins++
		}
	}
}

// meanPnL returns nil when no record of the group has a pnl.
func (g *groupStats) meanPnL() *float64 {
	if g == nil || len(g.pnl) == 0 {
		return nil
	}
	m := computeMean(g.pnl)
	return &m
}

// groupBy splits records by key. Records whose key is unavailable are
// collected in the returned null group, which is nil when there are none.
func groupBy[K comparable](records []domain.TradeRecord, key func(*domain.TradeRecord) (K, bool)) (map[K]*groupStats, *groupStats) {
	groups := make(map[K]*groupStats)
	var null *groupStats

	for i := range records {
		r := &records[i]
		k, ok := key(r)
		if !ok {
			if null == nil {
				null = &groupStats{}
			}
			null.add(r)
			continue
		}
		g, exists := groups[k]
		if !exists {
			g = &groupStats{}
			groups[k] = g
		}
		g.add(r)
	}
	return groups, null
}

func missing(ds *domain.Dataset, cols domain.Column) domain.Column {
	return ds.Schema.Missing(cols)
}

// EquityCurve sums net pnl per effective date and accumulates it in
// ascending date order. Rows without an effective date form one undated
// point appended last, so the final cumulative value equals CumulativePnL.
func EquityCurve(ds *domain.Dataset) domain.Table[domain.EquityPoint] {
	if m := missing(ds, domain.ColNetPnL|domain.ColEffectiveDate); m != 0 {
		return domain.Unavailable[domain.EquityPoint](m)
	}

	daily := make(map[int64]float64)
	var undated *float64
	for _, r := range ds.Records {
		net := 0.0
		if r.NetPnL != nil {
			net = *r.NetPnL
		}
		if r.EffectiveDate == nil {
			if undated == nil {
				undated = new(float64)
			}
			*undated += net
			continue
		}
		daily[r.EffectiveDate.Unix()] += net
	}

	days := make([]int64, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	rows := make([]domain.EquityPoint, 0, len(days)+1)
	cumulative := 0.0
	for _, d := range days {
		date := time.Unix(d, 0).UTC()
		cumulative += daily[d]
		rows = append(rows, domain.EquityPoint{Date: &date, DailyPnL: daily[d], CumulativePnL: cumulative})
	}
	if undated != nil {
		cumulative += *undated
		rows = append(rows, domain.EquityPoint{DailyPnL: *undated, CumulativePnL: cumulative})
	}

	return domain.Table[domain.EquityPoint]{Available: true, Rows: rows}
}

// AvgPnLByWeekday returns the mean pnl per weekday of the effective date,
// always seven rows from Monday to Sunday.
func AvgPnLByWeekday(ds *domain.Dataset) domain.WeekdayTable {
	if m := missing(ds, domain.ColPnL|domain.ColEffectiveDate); m != 0 {
		return domain.WeekdayTable{Table: domain.Unavailable[domain.WeekdayPnL](m)}
	}

	groups, null := groupBy(ds.Records, func(r *domain.TradeRecord) (time.Weekday, bool) {
		if r.EffectiveDate == nil {
			return 0, false
		}
		return r.EffectiveDate.Weekday(), true
	})

	rows := make([]domain.WeekdayPnL, 0, len(weekdayOrder))
	for _, wd := range weekdayOrder {
		row := domain.WeekdayPnL{Weekday: wd, Name: wd.String()}
		if g := groups[wd]; g != nil {
			row.Trades = g.trades
			row.MeanPnL = g.meanPnL()
		}
		rows = append(rows, row)
	}

	out := domain.WeekdayTable{Table: domain.Table[domain.WeekdayPnL]{Available: true, Rows: rows}}
	if null != nil {
		out.Unknown = &domain.WeekdayPnL{Name: "Unknown", Trades: null.trades, MeanPnL: null.meanPnL()}
	}
	return out
}

// AvgPnLByEntryHour returns the mean pnl per hour of entry, ascending by
// hour, with trades of unknown entry time last.
func AvgPnLByEntryHour(ds *domain.Dataset) domain.Table[domain.HourPnL] {
	if m := missing(ds, domain.ColPnL|domain.ColEntryHour); m != 0 {
		return domain.Unavailable[domain.HourPnL](m)
	}

	groups, null := groupBy(ds.Records, func(r *domain.TradeRecord) (int, bool) {
		if r.EntryHour == nil {
			return 0, false
		}
		return *r.EntryHour, true
	})

	hours := make([]int, 0, len(groups))
	for h := range groups {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	rows := make([]domain.HourPnL, 0, len(hours)+1)
	for _, h := range hours {
		hour := h
		g := groups[h]
		rows = append(rows, domain.HourPnL{Hour: &hour, Trades: g.trades, MeanPnL: g.meanPnL()})
	}
	if null != nil {
		rows = append(rows, domain.HourPnL{Trades: null.trades, MeanPnL: null.meanPnL()})
	}

	return domain.Table[domain.HourPnL]{Available: true, Rows: rows}
}

// AvgPnLByContract returns the mean pnl per contract sorted by mean
// descending. Groups without a known pnl sort last; ties break on the
// contract name with the unnamed group after named ones.
func AvgPnLByContract(ds *domain.Dataset) domain.Table[domain.ContractPnL] {
	if m := missing(ds, domain.ColPnL|domain.ColContractName); m != 0 {
		return domain.Unavailable[domain.ContractPnL](m)
	}

	rows := make([]domain.ContractPnL, 0)
	forEachContract(ds.Records, func(name *string, g *groupStats) {
		rows = append(rows, domain.ContractPnL{Contract: name, Trades: g.trades, MeanPnL: g.meanPnL()})
	})

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].MeanPnL, rows[j].MeanPnL
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		return contractLess(rows[i].Contract, rows[j].Contract)
	})

	return domain.Table[domain.ContractPnL]{Available: true, Rows: rows}
}

// WinRateByContract returns trade count and win rate per contract, sorted by
// trade count descending then contract name, truncated to limit entries.
// A limit <= 0 means DefaultTopContracts. Win rate counts every trade of the
// group in the denominator.
func WinRateByContract(ds *domain.Dataset, limit int) domain.Table[domain.ContractWinRate] {
	if m := missing(ds, domain.ColPnL|domain.ColContractName); m != 0 {
		return domain.Unavailable[domain.ContractWinRate](m)
	}
	if limit <= 0 {
		limit = DefaultTopContracts
	}

	rows := make([]domain.ContractWinRate, 0)
	forEachContract(ds.Records, func(name *string, g *groupStats) {
		rows = append(rows, domain.ContractWinRate{
			Contract: name,
			Trades:   g.trades,
			WinRate:  computeWinRate(g.wins, g.trades),
		})
	})

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Trades != rows[j].Trades {
			return rows[i].Trades > rows[j].Trades
		}
		return contractLess(rows[i].Contract, rows[j].Contract)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return domain.Table[domain.ContractWinRate]{Available: true, Rows: rows}
}

// forEachContract visits every contract group, then the unnamed group.
func forEachContract(records []domain.TradeRecord, fn func(name *string, g *groupStats)) {
	groups, null := groupBy(records, func(r *domain.TradeRecord) (string, bool) {
		if r.ContractName == nil {
			return "", false
		}
		return *r.ContractName, true
	})

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := name
		fn(&n, groups[name])
	}
	if null != nil {
		fn(nil, null)
	}
}

// contractLess orders named contracts alphabetically before the unnamed group.
func contractLess(a, b *string) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return *a < *b
}
