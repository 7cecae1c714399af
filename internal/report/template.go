package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/importer"
)

// BuildTemplate produces an upload workbook matching the expected section
// layout: blank when snapshot is nil, pre-filled from it otherwise. Enum
// columns carry dropdown validations so the common mistakes never reach the
// parser.
func BuildTemplate(snapshot *domain.PortfolioSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeHeadersSheet(f, snapshot); err != nil {
		return nil, err
	}
	if err := writeStatusSheet(f, snapshot); err != nil {
		return nil, err
	}
	writeListSheet(f, importer.SheetHighlights, highlightsOf(snapshot))
	writeListSheet(f, importer.SheetLowlights, lowlightsOf(snapshot))
	if err := writeMilestonesSheet(f, snapshot); err != nil {
		return nil, err
	}
	writeMetricsSheet(f, snapshot)

	// The default sheet excelize creates is not part of the layout.
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write template workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeadersSheet(f *excelize.File, snapshot *domain.PortfolioSnapshot) error {
	if _, err := f.NewSheet(importer.SheetHeaders); err != nil {
		return err
	}
	sheet := importer.SheetHeaders
	f.SetCellValue(sheet, "A1", "Portfolio")
	f.SetCellValue(sheet, "A2", "Report Date")
	f.SetCellValue(sheet, "A3", "Period")
	f.SetCellValue(sheet, "A4", "Comparison Period")
	f.SetCellValue(sheet, "D1", "Enter the portfolio name (required)")
	f.SetCellValue(sheet, "D3", "Start in column B, end in column C (ISO dates or free text)")
	if snapshot != nil {
		f.SetCellValue(sheet, "B1", snapshot.Headers.Portfolio)
		f.SetCellValue(sheet, "B2", snapshot.Headers.ReportDate)
		f.SetCellValue(sheet, "B3", snapshot.Headers.PeriodStart)
		f.SetCellValue(sheet, "C3", snapshot.Headers.PeriodEnd)
		f.SetCellValue(sheet, "B4", snapshot.Headers.ComparisonStart)
		f.SetCellValue(sheet, "C4", snapshot.Headers.ComparisonEnd)
	}
	return nil
}

func writeStatusSheet(f *excelize.File, snapshot *domain.PortfolioSnapshot) error {
	sheet := importer.SheetStatus
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headings := []string{"Project", "Status", "Trend", "Manager", "Next Milestone"}
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	colors := lookupOr(snapshot, "status", []string{"green", "amber", "red"})
	if err := addDropdown(f, sheet, "B2:B200", colors); err != nil {
		return err
	}
	trends := lookupOr(snapshot, "trend", []string{"up", "down", "flat"})
	if err := addDropdown(f, sheet, "C2:C200", trends); err != nil {
		return err
	}

	if snapshot == nil {
		return nil
	}
	for i, row := range snapshot.Status {
		r := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.Project)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), string(row.Color))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), string(row.Trend))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.Manager)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.NextMilestone)
	}
	return nil
}

func writeListSheet(f *excelize.File, sheet string, entries []domain.HighlightLowlight) {
	f.NewSheet(sheet)
	f.SetCellValue(sheet, "A1", "Project")
	f.SetCellValue(sheet, "B1", "Description")
	for i, e := range entries {
		r := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), e.Project)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), e.Description)
	}
}

func writeMilestonesSheet(f *excelize.File, snapshot *domain.PortfolioSnapshot) error {
	sheet := importer.SheetMilestones
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headings := []string{"Project", "Milestone", "Owner", "Due Date", "Status", "Update"}
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	badges := lookupOr(snapshot, "badge", []string{
		domain.BadgeCompleted, domain.BadgeInProgress, domain.BadgePending, domain.BadgeAtRisk,
	})
	if err := addDropdown(f, sheet, "E2:E200", badges); err != nil {
		return err
	}

	if snapshot == nil {
		return nil
	}
	for i, row := range snapshot.Milestones {
		r := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.Project)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.Milestone)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Owner)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.DueDate)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.Badge)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", r), row.Update)
	}
	return nil
}

func writeMetricsSheet(f *excelize.File, snapshot *domain.PortfolioSnapshot) {
	sheet := importer.SheetMetrics
	f.NewSheet(sheet)
	headings := []string{"Project", "SPI", "CPI", "Sev1", "Sev2", "Open Issues", "Risk Score", "Completion"}
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	if snapshot == nil {
		return
	}
	for i, m := range snapshot.Metrics {
		r := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), m.Project)
		setFloat(f, sheet, fmt.Sprintf("B%d", r), m.SPI)
		setFloat(f, sheet, fmt.Sprintf("C%d", r), m.CPI)
		setInt(f, sheet, fmt.Sprintf("D%d", r), m.Sev1Defects)
		setInt(f, sheet, fmt.Sprintf("E%d", r), m.Sev2Defects)
		setInt(f, sheet, fmt.Sprintf("F%d", r), m.OpenIssues)
		setFloat(f, sheet, fmt.Sprintf("G%d", r), m.RiskScore)
		setFloat(f, sheet, fmt.Sprintf("H%d", r), m.MilestoneCompletion)
	}
}

func addDropdown(f *excelize.File, sheet, sqref string, options []string) error {
	dv := excelize.NewDataValidation(true)
	dv.Sqref = sqref
	if err := dv.SetDropList(options); err != nil {
		return err
	}
	return f.AddDataValidation(sheet, dv)
}

func lookupOr(snapshot *domain.PortfolioSnapshot, key string, fallback []string) []string {
	if snapshot != nil && snapshot.Lookups != nil {
		if vals, ok := snapshot.Lookups[key]; ok && len(vals) > 0 {
			return vals
		}
	}
	return fallback
}

func setFloat(f *excelize.File, sheet, cell string, v *float64) {
	if v != nil {
		f.SetCellValue(sheet, cell, *v)
	}
}

func setInt(f *excelize.File, sheet, cell string, v *int) {
	if v != nil {
		f.SetCellValue(sheet, cell, *v)
	}
}

func highlightsOf(s *domain.PortfolioSnapshot) []domain.HighlightLowlight {
	if s == nil {
		return nil
	}
	return s.Highlights
}

func lowlightsOf(s *domain.PortfolioSnapshot) []domain.HighlightLowlight {
	if s == nil {
		return nil
	}
	return s.Lowlights
}
