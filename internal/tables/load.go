package tables

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// LoadFile reads the first sheet of an xlsx, xls or csv file. The table is
// named after the file.
func LoadFile(path string) (*Table, error) {
	const op = "LoadFile"

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
		}
		defer f.Close()
		return ReadXLSX(name, f)
	case ".xls":
		return ReadXLS(name, path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
		}
		defer f.Close()
		return ReadCSV(name, f)
	default:
		return nil, fmt.Errorf("%s: %s: %w", op, path, ErrUnsupportedFormat)
	}
}

// ReadXLSX reads the first sheet of an xlsx workbook.
func ReadXLSX(name string, r io.Reader) (*Table, error) {
	const op = "ReadXLSX"

	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open workbook: %w", op, err)
	}
	defer xl.Close()

	return readWorkbookSheet(xl, name, xl.GetSheetName(0))
}

// ReadXLSXSheet reads a named sheet of an xlsx file. A missing sheet yields
// an empty table without header so callers can treat it as "no data yet".
func ReadXLSXSheet(path, sheet string) (*Table, error) {
	const op = "ReadXLSXSheet"

	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer xl.Close()

	if idx, err := xl.GetSheetIndex(sheet); err != nil || idx < 0 {
		return New(sheet, nil, nil), nil
	}
	return readWorkbookSheet(xl, sheet, sheet)
}

func readWorkbookSheet(xl *excelize.File, name, sheet string) (*Table, error) {
	const op = "readWorkbookSheet"

	rawRows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %s: %w", op, sheet, err)
	}
	if len(rawRows) == 0 {
		return New(name, nil, nil), nil
	}
	return FromRows(name, rawRows)
}

// ReadXLS reads the first sheet of a legacy xls workbook.
func ReadXLS(name, path string) (*Table, error) {
	const op = "ReadXLS"

	book, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}

	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("%s: no sheets found in %s", op, path)
	}

	var raw [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, col := range row.GetCols() {
			cells = append(cells, col.GetString())
		}
		raw = append(raw, cells)
	}
	if len(raw) == 0 {
		return New(name, nil, nil), nil
	}
	return FromRows(name, raw)
}

// ReadCSV reads comma separated data. A UTF-8 byte order mark is ignored.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	const op = "ReadCSV"

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", op, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse csv: %w", op, err)
	}
	if len(rows) == 0 {
		return New(name, nil, nil), nil
	}
	return FromRows(name, rows)
}
