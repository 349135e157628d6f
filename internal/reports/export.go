package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFilename builds the download name for a report file, e.g.
// "headwise-dues_2026-03-31.csv".
func ExportFilename(rep *Report, ext string) string {
	return fmt.Sprintf("%s_%s.%s", rep.Mode, time.Now().Format("2006-01-02"), ext)
}

// WriteCSV serialises a report to CSV: header row, data rows, then the
// totals footer. Reports with no data rows are refused so a caller
// never downloads a file that only contains headers.
func WriteCSV(w io.Writer, rep *Report) error {
	if len(rep.Rows) == 0 {
		return ErrEmptyExport
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(rep.Columns); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	if len(rep.Totals) > 0 {
		if err := writer.Write(rep.Totals); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

const xlsxSheet = "Report"

// WriteXLSX serialises a report to a single-sheet XLSX workbook with a
// bold header row.
func WriteXLSX(w io.Writer, rep *Report) error {
	if len(rep.Rows) == 0 {
		return ErrEmptyExport
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := make([]any, len(rep.Columns))
	for i, c := range rep.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(rep.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", lastCol+"1", boldStyle); err != nil {
		return err
	}

	rowNum := 2
	writeRow := func(cells []string) error {
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		rowNum++
		return f.SetSheetRow(xlsxSheet, cell, &row)
	}
	for _, row := range rep.Rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	if len(rep.Totals) > 0 {
		if err := writeRow(rep.Totals); err != nil {
			return err
		}
	}
	return f.Write(w)
}
