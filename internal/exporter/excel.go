package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"mlpulse/pkg/contracts/domain"
)

// ExcelWriter exports dashboard results as a single workbook with one
// sheet per result table.
type ExcelWriter struct {
	outDir string
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer rooted at outDir.
func NewExcelWriter(outDir string, logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{outDir: outDir, logger: logger.With(slog.String("component", "excel_exporter"))}
}

// WriteDashboard writes the workbook and returns its path.
func (w *ExcelWriter) WriteDashboard(name string, result *domain.DashboardResult) (string, error) {
	fullPath := filepath.Join(w.outDir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	tables := dashboardTables(result)
	for i, table := range tables {
		sheet := table.name
		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		header := make([]interface{}, len(table.headers))
		for j, h := range table.headers {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return "", fmt.Errorf("failed to write header on %s: %w", sheet, err)
		}

		for rowIdx, row := range table.rows {
			values := make([]interface{}, len(row))
			for j, v := range row {
				values[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return "", fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return "", fmt.Errorf("failed to write row on %s: %w", sheet, err)
			}
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("wrote Excel export",
		slog.String("path", fullPath),
		slog.Int("sheets", len(tables)))
	return fullPath, nil
}
