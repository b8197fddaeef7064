package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"vahan-dashboard/internal/models"
)

const (
	sheetName   = "Registrations"
	maxColWidth = 50
)

// WriteExcel renders the derived table as an xlsx workbook with columns
// auto-fitted to their widest cell.
func WriteExcel(w io.Writer, rows []models.DerivedMetricRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(Columns))

	writeRow := func(rowNum int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
		return f.SetSheetRow(sheetName, cell, &values)
	}

	if err := writeRow(1, Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		if err := writeRow(i+2, recordFor(row)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	for i := range Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := widths[i] + 2
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheetName, col, col, float64(width)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
