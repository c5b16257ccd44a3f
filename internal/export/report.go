package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// BuildTablePDF renders a minimal PDF flight report for one strategy table.
func BuildTablePDF(strategy string, table *telemetry.Table) ([]byte, error) {
	if table == nil {
		return nil, errors.New("export: nil table")
	}
	columns := table.Columns()
	rows := table.Rows()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Flight Telemetry Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Strategy: %s", strategy))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Samples: %d", len(rows)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	width := 180.0 / float64(len(columns)+1)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(width, 6, "met", "1", 0, "C", false, 0, "")
	for _, c := range columns {
		pdf.CellFormat(width, 6, c.String(), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(width, 6, fmt.Sprintf("%d", row.Met), "1", 0, "R", false, 0, "")
		for _, c := range columns {
			pdf.CellFormat(width, 6, fmt.Sprintf("%.3f", row.Values[c]), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTableXLSX renders a minimal XLSX workbook for one strategy table.
func BuildTableXLSX(strategy string, table *telemetry.Table) ([]byte, error) {
	if table == nil {
		return nil, errors.New("export: nil table")
	}
	columns := table.Columns()
	rows := table.Rows()

	f := excelize.NewFile()
	summarySheet := "summary"
	samplesSheet := "samples"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(samplesSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Flight Telemetry Report")
	_ = f.SetCellValue(summarySheet, "A3", "Strategy")
	_ = f.SetCellValue(summarySheet, "B3", strategy)
	_ = f.SetCellValue(summarySheet, "A4", "Samples")
	_ = f.SetCellValue(summarySheet, "B4", len(rows))
	_ = f.SetCellValue(summarySheet, "A5", "Generated")
	_ = f.SetCellValue(summarySheet, "B5", time.Now().UTC().Format(time.RFC3339))

	_ = f.SetCellValue(samplesSheet, "A1", "met")
	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(samplesSheet, cell, c.String())
	}
	for i, row := range rows {
		metCell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(samplesSheet, metCell, row.Met)
		for j, c := range columns {
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(samplesSheet, cell, row.Values[c])
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
