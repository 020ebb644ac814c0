package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// QueryTable runs a read-only query and returns the result column names and
// every row as plain Go values. Rows are released before returning.
func (p *Pool) QueryTable(ctx context.Context, query string, args ...any) ([]string, [][]any, error) {
	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query table: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var result [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("scan table row: %w", err)
		}
		for i, v := range values {
			values[i] = plainValue(v)
		}
		result = append(result, values)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate table rows: %w", err)
	}

	return columns, result, nil
}

// plainValue converts pgtype wrappers into driver-neutral values.
// Numerics become their text form, intervals become durations.
func plainValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case pgtype.Interval:
		if !t.Valid {
			return nil
		}
		days := int64(t.Days) + int64(t.Months)*30
		return time.Duration(t.Microseconds)*time.Microsecond + time.Duration(days)*24*time.Hour
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return nil
		}
		return dv
	default:
		return v
	}
}
