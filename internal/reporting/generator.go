package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"trade-eda/internal/domain"
	"trade-eda/internal/filter"
	"trade-eda/internal/logger"
	"trade-eda/internal/observability"
	"trade-eda/internal/pipeline"
)

// Generator produces reports from a loaded dataset.
type Generator struct {
	dashboard *pipeline.Dashboard
	logger    *zap.Logger
}

// NewGenerator creates a new report generator over dashboard.
func NewGenerator(dashboard *pipeline.Dashboard) *Generator {
	return &Generator{
		dashboard: dashboard,
		logger:    zap.NewNop(),
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.dashboard = g.dashboard.WithClock(now)
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(l *zap.Logger) *Generator {
	g.logger = logger.OrNop(l)
	return g
}

// Generate builds the report for ds. A nil params covers the full date range.
func (g *Generator) Generate(ds *domain.Dataset, params *filter.Params) *Report {
	return NewReport(g.dashboard.Build(ds, params))
}

// Write renders r into outputDir and returns the written paths.
func (g *Generator) Write(r *Report, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s := r.Summary
	contents := map[string]string{
		ReportFile:            RenderMarkdown(r),
		EquityCurveFile:       RenderEquityCurveCSV(s.EquityCurve),
		PnLByWeekdayFile:      RenderWeekdayCSV(s.PnLByWeekday),
		PnLByHourFile:         RenderHourCSV(s.PnLByEntryHour),
		PnLByContractFile:     RenderContractPnLCSV(s.PnLByContract),
		WinRateByContractFile: RenderWinRateCSV(s.WinRateByContract),
		PreviewFile:           RenderPreviewCSV(r.Preview),
	}

	var paths []string
	for _, name := range Files() {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(contents[name]), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", name, err)
		}
		paths = append(paths, path)
	}

	observability.RecordReportGenerated()
	g.logger.Info("report written",
		zap.String("dataset_id", r.Dataset.ID),
		zap.String("output_dir", outputDir),
		zap.Int("filtered_rows", r.FilteredRows))

	return paths, nil
}

// Run generates the report for ds and writes it into outputDir.
func (g *Generator) Run(ds *domain.Dataset, params *filter.Params, outputDir string) (*Report, error) {
	r := g.Generate(ds, params)
	if _, err := g.Write(r, outputDir); err != nil {
		return nil, err
	}
	return r, nil
}
