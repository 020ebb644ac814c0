package reporting

import (
	"time"

	"trade-eda/internal/domain"
	"trade-eda/internal/filter"
	"trade-eda/internal/pipeline"
)

// Output file names written by Generator.Write.
const (
	ReportFile            = "REPORT.md"
	EquityCurveFile       = "equity_curve.csv"
	PnLByWeekdayFile      = "pnl_by_weekday.csv"
	PnLByHourFile         = "pnl_by_hour.csv"
	PnLByContractFile     = "pnl_by_contract.csv"
	WinRateByContractFile = "win_rate_by_contract.csv"
	PreviewFile           = "preview.csv"
)

// Report represents one dashboard view prepared for rendering.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Dataset     pipeline.DatasetInfo

	// Filter applied to the charts
	Params       filter.Params
	FilteredRows int

	// KPIs over the whole dataset and aggregates over the selection
	Overall domain.KPIs
	Summary *domain.Summary

	// First rows of the selection, input order
	Preview []domain.TradeRecord
}

// NewReport builds a report from a dashboard view.
func NewReport(v *pipeline.View) *Report {
	return &Report{
		GeneratedAt:  v.GeneratedAt,
		Dataset:      v.Dataset,
		Params:       v.Params,
		FilteredRows: v.FilteredRows,
		Overall:      v.Overall,
		Summary:      v.Summary,
		Preview:      v.Preview,
	}
}

// Files lists every file name a report is written to, REPORT.md first.
func Files() []string {
	return []string{
		ReportFile,
		EquityCurveFile,
		PnLByWeekdayFile,
		PnLByHourFile,
		PnLByContractFile,
		WinRateByContractFile,
		PreviewFile,
	}
}
