package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"bnbpulse/internal/config"
)

// Sheet is one worksheet of an exported workbook
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// ExcelWriter writes multi-sheet XLSX workbooks
type ExcelWriter struct {
	paths *config.Paths
}

// NewExcelWriter creates a new workbook writer
func NewExcelWriter(paths *config.Paths) *ExcelWriter {
	return &ExcelWriter{paths: paths}
}

// WriteWorkbook writes the given sheets to a single XLSX file. The first
// sheet replaces the default "Sheet1".
func (w *ExcelWriter) WriteWorkbook(filePath string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook requires at least one sheet")
	}

	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = w.paths.GetReportPath(filePath)
	}

	slog.Info("Writing XLSX workbook",
		slog.String("file_path", filePath),
		slog.Int("sheet_count", len(sheets)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
			}
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers on %s: %w", sheet.Name, err)
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell for row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i, sheet.Name, err)
		}
	}
	return nil
}
