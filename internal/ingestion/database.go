package ingestion

import (
	"context"
	"fmt"
)

// DefaultQuery reads every column of the trades table.
const DefaultQuery = "SELECT * FROM trades"

// TableQuerier runs a query and returns its result as columns plus raw rows.
// Implemented by storage/postgres.Pool and storage/clickhouse.Conn.
type TableQuerier interface {
	QueryTable(ctx context.Context, query string, args ...any) ([]string, [][]any, error)
}

// QuerySource reads a trade table from a SQL database.
type QuerySource struct {
	name  string
	db    TableQuerier
	query string
}

// PostgresSource creates a source reading query through a Postgres pool.
func PostgresSource(db TableQuerier, query string) *QuerySource {
	return newQuerySource("postgres", db, query)
}

// ClickHouseSource creates a source reading query through a ClickHouse connection.
func ClickHouseSource(db TableQuerier, query string) *QuerySource {
	return newQuerySource("clickhouse", db, query)
}

func newQuerySource(kind string, db TableQuerier, query string) *QuerySource {
	if query == "" {
		query = DefaultQuery
	}
	return &QuerySource{name: kind + ":" + query, db: db, query: query}
}

// Name returns the source name.
func (s *QuerySource) Name() string {
	return s.name
}

// Read runs the query. A result without columns is not a table.
func (s *QuerySource) Read(ctx context.Context) (*RawTable, error) {
	columns, rows, err := s.db.QueryTable(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: query returned no columns", ErrInvalidTable)
	}
	return &RawTable{Columns: columns, Rows: rows}, nil
}
