// Package tables is the boundary between spreadsheet-shaped sources and the
// reconciliation engine. A Table is a header row plus string cells; loaders
// exist for xlsx, legacy xls, csv and Google Sheets value ranges.
//
// Header detection is deliberately simple: the first non-empty row is the
// header and column names are matched case-insensitively with spaces and
// underscores ignored.
package tables

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for files that are not xlsx, xls or csv.
	ErrUnsupportedFormat = errors.New("unsupported table format")

	// ErrNoHeader is returned when a source contains no non-empty row.
	ErrNoHeader = errors.New("table has no header row")
)

// Table is a rectangular view over a source sheet.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New builds a table from a header and data rows. Rows shorter than the
// header are read as if padded with empty cells.
func New(name string, columns []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: columns,
		Rows:    rows,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		key := columnKey(c)
		if key == "" {
			continue
		}
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// FromRows treats the first non-empty row as header. Fully empty rows are
// dropped.
func FromRows(name string, raw [][]string) (*Table, error) {
	const op = "FromRows"

	var header []string
	var rows [][]string
	for _, r := range raw {
		if isBlank(r) {
			continue
		}
		if header == nil {
			header = trimAll(r)
			continue
		}
		rows = append(rows, trimAll(r))
	}

	if header == nil {
		return nil, fmt.Errorf("%s: %s: %w", op, name, ErrNoHeader)
	}
	return New(name, header, rows), nil
}

// FromValues converts a Google Sheets value range into a table.
func FromValues(name string, values [][]interface{}) (*Table, error) {
	raw := make([][]string, len(values))
	for i, row := range values {
		raw[i] = make([]string, len(row))
		for j := range row {
			raw[i][j] = getString(row, j)
		}
	}
	return FromRows(name, raw)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty reports whether the table has no data rows.
func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

// Has reports whether the table carries a column with the given name.
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[columnKey(column)]
	return ok
}

// HasAny reports whether at least one of the columns is present.
func (t *Table) HasAny(columns ...string) bool {
	for _, c := range columns {
		if t.Has(c) {
			return true
		}
	}
	return false
}

// Value returns the trimmed cell of row i in column, or "" when either is
// missing.
func (t *Table) Value(i int, column string) string {
	if t == nil || i < 0 || i >= len(t.Rows) {
		return ""
	}
	idx, ok := t.index[columnKey(column)]
	if !ok {
		return ""
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// First returns the first non-empty value among the columns for row i.
func (t *Table) First(i int, columns ...string) string {
	for _, c := range columns {
		if v := t.Value(i, c); v != "" {
			return v
		}
	}
	return ""
}

func columnKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
