package ingestion

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const utf8BOM = "\uFEFF"

// CSVSource reads a comma-separated trade export from a file or memory.
type CSVSource struct {
	name string
	path string // read from disk when set, otherwise data is parsed
	data []byte
}

// CSVFile creates a source reading the CSV file at path.
func CSVFile(path string) *CSVSource {
	return &CSVSource{name: "csv:" + path, path: path}
}

// CSVBytes creates a source over an in-memory CSV document (e.g. an upload).
func CSVBytes(name string, data []byte) *CSVSource {
	return &CSVSource{name: "csv:" + name, data: data}
}

// Name returns the source name.
func (s *CSVSource) Name() string {
	return s.name
}

// Read parses the whole document. The file handle is closed before returning.
func (s *CSVSource) Read(_ context.Context) (*RawTable, error) {
	if s.path == "" {
		return parseCSV(bytes.NewReader(s.data))
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoData, s.path)
		}
		return nil, fmt.Errorf("open csv %s: %w", s.path, err)
	}
	defer f.Close()

	return parseCSV(f)
}

// parseCSV reads a header row followed by data rows. Every row must have as
// many fields as the header.
func parseCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", ErrNoData)
		}
		return nil, fmt.Errorf("%w: read csv header: %v", ErrInvalidTable, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	table := &RawTable{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", ErrInvalidTable, err)
		}

		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
