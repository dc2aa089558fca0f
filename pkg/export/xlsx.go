// Package export serializes export rows into an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"keyword-volume-go/pkg/pipeline"
)

const (
	SheetName   = "검색량"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrNothingToExport is returned for an empty search; an empty workbook is never written.
var ErrNothingToExport = errors.New("no records to export")

var columnWidths = []float64{6, 25, 18, 20, 14, 12}

// Write streams a workbook with the header row followed by rows.
func Write(w io.Writer, rows []pipeline.ExportRow) error {
	f, err := build(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook as dir/filename and returns the full path. Path
// separators in filename (from the keyword) are replaced so the file stays in dir.
func WriteFile(dir, filename string, rows []pipeline.ExportRow) (string, error) {
	f, err := build(rows)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, SafeFilename(filename))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// SafeFilename neutralizes characters that would escape the export directory.
func SafeFilename(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name)
}

func build(rows []pipeline.ExportRow) (*excelize.File, error) {
	if len(rows) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := fill(f, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, rows []pipeline.ExportRow) error {
	headers := make([]interface{}, len(pipeline.ExportHeaders))
	for i, h := range pipeline.ExportHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		cells := row.Cells()
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index, err)
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}
