package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads a trade export from an Excel workbook. The first row of the
// sheet is the header.
type XLSXSource struct {
	name  string
	path  string // read from disk when set, otherwise data is parsed
	data  []byte
	sheet string // first sheet when empty
}

// XLSXFile creates a source reading sheet from the workbook at path.
func XLSXFile(path, sheet string) *XLSXSource {
	return &XLSXSource{name: xlsxName(path, sheet), path: path, sheet: sheet}
}

// XLSXBytes creates a source over an in-memory workbook (e.g. an upload).
func XLSXBytes(name string, data []byte, sheet string) *XLSXSource {
	return &XLSXSource{name: xlsxName(name, sheet), data: data, sheet: sheet}
}

func xlsxName(path, sheet string) string {
	if sheet == "" {
		return "xlsx:" + path
	}
	return "xlsx:" + path + "#" + sheet
}

// Name returns the source name.
func (s *XLSXSource) Name() string {
	return s.name
}

// Read opens the workbook, reads the sheet and closes the workbook.
func (s *XLSXSource) Read(_ context.Context) (*RawTable, error) {
	var (
		f   *excelize.File
		err error
	)
	if s.path == "" {
		if len(s.data) == 0 {
			return nil, fmt.Errorf("%w: empty workbook", ErrNoData)
		}
		f, err = excelize.OpenReader(bytes.NewReader(s.data))
	} else {
		f, err = excelize.OpenFile(s.path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoData, s.path)
		}
		return nil, fmt.Errorf("%w: open workbook: %v", ErrInvalidTable, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidTable)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidTable, sheet, err)
	}

	return sheetToTable(rows)
}

// sheetToTable converts excelize rows into a RawTable. excelize trims trailing
// empty cells, so short rows are padded; blank rows are skipped.
func sheetToTable(rows [][]string) (*RawTable, error) {
	start := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrNoData)
	}

	header := rows[start]
	width := len(header)
	table := &RawTable{Columns: header}

	for i := start + 1; i < len(rows); i++ {
		cells := rows[i]
		if isBlankRow(cells) {
			continue
		}
		if len(cells) > width && !isBlankRow(cells[width:]) {
			return nil, fmt.Errorf("%w: sheet row %d has %d cells, header has %d", ErrInvalidTable, i+1, len(cells), width)
		}

		row := make([]any, width)
		for j := 0; j < width; j++ {
			if j < len(cells) {
				row[j] = cells[j]
			} else {
				row[j] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
