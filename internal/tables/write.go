package tables

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet is an output table. Cells keep their Go type so numbers stay numeric
// in the workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Values renders the sheet as a Google Sheets value range, header first.
func (s Sheet) Values() [][]interface{} {
	values := make([][]interface{}, 0, len(s.Rows)+1)
	header := make([]interface{}, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range s.Rows {
		values = append(values, r)
	}
	return values
}

// WriteXLSX writes the sheets, in order, into a new workbook at path. The
// file is written next to the destination and renamed into place so readers
// never observe a partial workbook.
func WriteXLSX(path string, sheets ...Sheet) error {
	const op = "WriteXLSX"

	if len(sheets) == 0 {
		return fmt.Errorf("%s: no sheets to write", op)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: failed to create %s: %w", op, dir, err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create header style: %w", op, err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return fmt.Errorf("%s: failed to rename sheet: %w", op, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("%s: failed to add sheet %s: %w", op, s.Name, err)
		}

		if err := writeSheet(f, s, headerStyle); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	f.SetActiveSheet(0)

	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", op, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: failed to move workbook into place: %w", op, err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	header := make([]interface{}, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", s.Name, err)
	}
	if len(s.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(s.Header), 1)
		if err := f.SetCellStyle(s.Name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", s.Name, err)
		}
	}

	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, s.Name, err)
		}
	}
	return nil
}
