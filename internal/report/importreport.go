package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/statusdeck/statusdeck-backend/internal/importer"
)

const reportSheet = "Import Report"

// BuildImportReport renders every validation error and warning into one
// workbook the user can work through and re-upload against.
func BuildImportReport(errs []importer.ValidationError, warnings []importer.ValidationWarning) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	headings := []string{"Severity", "Section", "Row", "Field", "Detail"}
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, h)
	}

	r := 2
	for _, e := range errs {
		f.SetCellValue(reportSheet, fmt.Sprintf("A%d", r), "error")
		f.SetCellValue(reportSheet, fmt.Sprintf("B%d", r), e.Section)
		if e.Row > 0 {
			f.SetCellValue(reportSheet, fmt.Sprintf("C%d", r), e.Row)
		}
		f.SetCellValue(reportSheet, fmt.Sprintf("D%d", r), e.Field)
		f.SetCellValue(reportSheet, fmt.Sprintf("E%d", r), e.Reason)
		r++
	}
	for _, w := range warnings {
		f.SetCellValue(reportSheet, fmt.Sprintf("A%d", r), "warning")
		f.SetCellValue(reportSheet, fmt.Sprintf("B%d", r), w.Section)
		f.SetCellValue(reportSheet, fmt.Sprintf("E%d", r), w.Message)
		r++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write import report: %w", err)
	}
	return buf.Bytes(), nil
}
