package pipeline

import (
	"context"
	"errors"
	"testing"

	"trade-eda/internal/ingestion"
	"trade-eda/internal/storage"
	"trade-eda/internal/storage/memory"
)

// tableSource serves a fixed table and counts reads.
type tableSource struct {
	name  string
	table *ingestion.RawTable
	err   error
	reads int
}

func (s *tableSource) Name() string { return s.name }

func (s *tableSource) Read(_ context.Context) (*ingestion.RawTable, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

const exampleCSV = `ContractName,EnteredAt,ExitedAt,PnL,Fees
ES,2024-01-02T09:15:00,2024-01-02T09:45:00,100,2
ES,2024-01-03T10:00:00,2024-01-03T10:10:00,-50,2
`

func newTestLoader() *Loader {
	return NewLoader(NewCache(memory.NewDatasetStore(), 4), nil)
}

func TestLoader_LoadCSV(t *testing.T) {
	loader := newTestLoader()

	ds, err := loader.Load(context.Background(), ingestion.CSVBytes("trades.csv", []byte(exampleCSV)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ds.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", ds.Len())
	}
	if ds.Source != "csv:trades.csv" {
		t.Errorf("Expected source csv:trades.csv, got %s", ds.Source)
	}
	if ds.ID == "" {
		t.Error("Expected dataset id")
	}
	if ds.Baseline == nil {
		t.Error("Expected derived baseline")
	}
	if ds.Records[0].NetPnL == nil || *ds.Records[0].NetPnL != 98 {
		t.Errorf("Expected derived net pnl 98, got %v", ds.Records[0].NetPnL)
	}
}

func TestLoader_UnchangedContentServedFromCache(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader()

	first, err := loader.Load(ctx, ingestion.CSVBytes("trades.csv", []byte(exampleCSV)))
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := loader.Load(ctx, ingestion.CSVBytes("trades.csv", []byte(exampleCSV)))
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected same id for same content, got %s and %s", first.ID, second.ID)
	}
	if n := loader.Cache().Len(ctx); n != 1 {
		t.Errorf("Expected 1 cached dataset, got %d", n)
	}
}

func TestLoader_ChangedContentInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader()

	src := &tableSource{
		name: "csv:trades.csv",
		table: &ingestion.RawTable{
			Columns: []string{"PnL"},
			Rows:    [][]any{{"10"}},
		},
	}

	first, err := loader.Load(ctx, src)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}

	src.table = &ingestion.RawTable{
		Columns: []string{"PnL"},
		Rows:    [][]any{{"10"}, {"20"}},
	}
	second, err := loader.Load(ctx, src)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("Expected a new id for changed content")
	}
	if second.Len() != 2 {
		t.Errorf("Expected 2 records after change, got %d", second.Len())
	}
	if _, err := loader.Cache().Get(ctx, first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected previous dataset invalidated, got %v", err)
	}
	if src.reads != 2 {
		t.Errorf("Expected source read on every load, got %d reads", src.reads)
	}
}

func TestLoader_Errors(t *testing.T) {
	readErr := errors.New("connection refused")

	tests := []struct {
		name string
		src  *tableSource
		want error
	}{
		{
			name: "no rows",
			src:  &tableSource{name: "csv:a", table: &ingestion.RawTable{Columns: []string{"PnL"}}},
			want: ingestion.ErrNoData,
		},
		{
			name: "ragged table",
			src: &tableSource{name: "csv:b", table: &ingestion.RawTable{
				Columns: []string{"PnL", "Fees"},
				Rows:    [][]any{{"1"}},
			}},
			want: ingestion.ErrInvalidTable,
		},
		{
			name: "duplicate column",
			src: &tableSource{name: "csv:c", table: &ingestion.RawTable{
				Columns: []string{"PnL", "PnL"},
				Rows:    [][]any{{"1", "2"}},
			}},
			want: ingestion.ErrInvalidTable,
		},
		{
			name: "read failure",
			src:  &tableSource{name: "postgres:db/trades", err: readErr},
			want: readErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader().Load(context.Background(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSourceKind(t *testing.T) {
	tests := map[string]string{
		"csv:trades.csv":        "csv",
		"xlsx:book.xlsx#Sheet1": "xlsx",
		"postgres:trades":       "postgres",
		"clickhouse:default":    "clickhouse",
		"trades.csv":            "unknown",
		":leading-colon":        "unknown",
	}
	for name, want := range tests {
		if got := SourceKind(name); got != want {
			t.Errorf("SourceKind(%q): expected %s, got %s", name, want, got)
		}
	}
}
