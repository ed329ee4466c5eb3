package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fleet-office/internal/features/reports/domain"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes report rows to an .xlsx file under dir. The header is
// the union of all row columns in first-appearance order, so trips with
// different destination counts share one sheet.
type ExcelExporter struct {
	dir string
}

// NewExcelExporter creates a new ExcelExporter writing into dir.
func NewExcelExporter(dir string) *ExcelExporter {
	return &ExcelExporter{dir: dir}
}

const sheetName = "Trip Report"

// Write renders the rows and returns the created file's path.
func (e *ExcelExporter) Write(rows []*domain.Row) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	columns := unionColumns(rows)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, row := range rows {
		for col, name := range columns {
			value, ok := row.Get(name)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", rowIdx+1, err)
			}
		}
	}

	path := filepath.Join(e.dir, fmt.Sprintf("trip-report-%s.xlsx", time.Now().Format("20060102-150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return path, nil
}

// unionColumns merges every row's columns, keeping first-appearance order.
func unionColumns(rows []*domain.Row) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, name := range row.Columns() {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	return columns
}
