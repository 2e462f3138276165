package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// table is a header row plus data rows keyed by lower-cased column name.
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

// cell returns the trimmed value of col in row i, "" when absent.
func (t *table) cell(i int, col string) string {
	idx, ok := t.columns[col]
	if !ok || idx >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][idx])
}

func newTable(records [][]string) *table {
	t := &table{columns: map[string]int{}}
	if len(records) == 0 {
		return t
	}
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if h == "" {
			continue
		}
		if _, dup := t.columns[h]; !dup {
			t.columns[h] = i
		}
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// readTable reads the first sheet of an XLSX workbook or a whole CSV file.
func readTable(format string, r io.Reader) (*table, error) {
	switch format {
	case constants.FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		records, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return newTable(records), nil
	case constants.FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer func() { _ = f.Close() }()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return newTable(nil), nil
		}
		records, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
		}
		return newTable(records), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
