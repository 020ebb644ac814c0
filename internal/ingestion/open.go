package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	chstore "trade-eda/internal/storage/clickhouse"
	pgstore "trade-eda/internal/storage/postgres"
)

// Spec selects where the trade table comes from. The first configured
// location wins: Postgres, then ClickHouse, then the file at Path.
type Spec struct {
	Path            string // .csv, or .xlsx/.xlsm workbook
	Sheet           string // workbook sheet, first sheet when empty
	PostgresDSN     string
	PostgresQuery   string
	ClickHouseDSN   string
	ClickHouseQuery string
}

// Open builds the source described by spec. The returned release func closes
// any connection Open created and must be called once the source is no
// longer needed.
func Open(ctx context.Context, spec Spec) (Source, func(), error) {
	switch {
	case spec.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, spec.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres source: %w", err)
		}
		return PostgresSource(pool, spec.PostgresQuery), pool.Close, nil

	case spec.ClickHouseDSN != "":
		conn, err := chstore.NewConn(ctx, spec.ClickHouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open clickhouse source: %w", err)
		}
		return ClickHouseSource(conn, spec.ClickHouseQuery), func() { _ = conn.Close() }, nil

	case spec.Path != "":
		return FileSource(spec.Path, spec.Sheet), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: no input source configured", ErrNoData)
	}
}

// FileSource picks the CSV or workbook reader from the file extension.
func FileSource(path, sheet string) Source {
	if IsWorkbook(path) {
		return XLSXFile(path, sheet)
	}
	return CSVFile(path)
}

// IsWorkbook reports whether name has an Excel workbook extension.
func IsWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}
