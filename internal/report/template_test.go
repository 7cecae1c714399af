package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/importer"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func snapshotFixture() *domain.PortfolioSnapshot {
	return &domain.PortfolioSnapshot{
		Headers: domain.Headers{
			Portfolio:       "B2B Delivery",
			PeriodStart:     "2025-09-10",
			PeriodEnd:       "2025-09-17",
			ComparisonStart: "2025-09-03",
			ComparisonEnd:   "2025-09-09",
			ReportDate:      "2025-09-17",
		},
		Status: []domain.StatusRow{
			{Project: "Alpha", Color: domain.ColorGreen, Trend: domain.TrendUp, Manager: "Bob", NextMilestone: "M1", Order: 0},
			{Project: "Beta", Color: domain.ColorAmber, Trend: domain.TrendFlat, Manager: "Ann", NextMilestone: "M3", Order: 1},
		},
		Highlights: []domain.HighlightLowlight{
			{Kind: "highlight", Project: "Alpha", Description: "UAT signed off", Order: 0},
		},
		Lowlights: []domain.HighlightLowlight{
			{Kind: "lowlight", Description: "Vendor contract delayed", Order: 0},
		},
		Milestones: []domain.MilestoneRow{
			{Project: "Alpha", Milestone: "M1", Owner: "Bob", DueDate: "2025-10-01", Badge: domain.BadgeInProgress, Update: "On track", Order: 0},
		},
		Metrics: []domain.MetricsRow{
			{Project: "Alpha", SPI: fp(1.02), CPI: fp(0.99), Sev1Defects: ip(0), Sev2Defects: ip(1), OpenIssues: ip(4), RiskScore: fp(0.2)},
		},
	}
}

// A pre-filled template must parse back to the snapshot it was built from.
func TestTemplateParserRoundTrip(t *testing.T) {
	want := snapshotFixture()
	raw, err := BuildTemplate(want)
	if err != nil {
		t.Fatalf("BuildTemplate: %v", err)
	}

	p := importer.NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("template rejected by its own parser: %v", res.Errors)
	}

	got, _ := json.Marshal(res.Data)
	wantJSON, _ := json.Marshal(want)
	if string(got) != string(wantJSON) {
		t.Fatalf("round trip drifted\n got: %s\nwant: %s", got, wantJSON)
	}
}

func TestBlankTemplateLayout(t *testing.T) {
	raw, err := BuildTemplate(nil)
	if err != nil {
		t.Fatalf("BuildTemplate(nil): %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	names := map[string]bool{}
	for _, n := range f.GetSheetList() {
		names[n] = true
	}
	for _, sheet := range []string{
		importer.SheetHeaders, importer.SheetStatus, importer.SheetHighlights,
		importer.SheetLowlights, importer.SheetMilestones, importer.SheetMetrics,
	} {
		if !names[sheet] {
			t.Errorf("missing sheet %s", sheet)
		}
	}
	if names["Sheet1"] {
		t.Error("default sheet not removed")
	}

	if got, _ := f.GetCellValue(importer.SheetStatus, "A1"); got != "Project" {
		t.Errorf("Status!A1 = %q", got)
	}

	dvs, err := f.GetDataValidations(importer.SheetStatus)
	if err != nil {
		t.Fatalf("GetDataValidations: %v", err)
	}
	if len(dvs) < 2 {
		t.Errorf("status sheet has %d validations, want dropdowns for status and trend", len(dvs))
	}
}

func TestBuildImportReport(t *testing.T) {
	errs := []importer.ValidationError{
		{Section: importer.SheetStatus, Row: 3, Field: "status", Reason: `invalid status color "purple"`},
	}
	warnings := []importer.ValidationWarning{
		{Section: importer.SheetMetrics, Message: "optional sheet not found"},
	}
	raw, err := BuildImportReport(errs, warnings)
	if err != nil {
		t.Fatalf("BuildImportReport: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + error + warning", len(rows))
	}
	if rows[1][0] != "error" || rows[1][1] != importer.SheetStatus || rows[1][2] != "3" {
		t.Errorf("error row = %v", rows[1])
	}
	if rows[2][0] != "warning" || rows[2][1] != importer.SheetMetrics {
		t.Errorf("warning row = %v", rows[2])
	}
}
