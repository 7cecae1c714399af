package importer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/rag"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// buildWorkbook writes the given sheets into an in-memory xlsx file.
func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
		for r, row := range rows {
			cell := fmt.Sprintf("A%d", r+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row %s!%s: %v", name, cell, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("delete default sheet: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func headerRows() [][]interface{} {
	return [][]interface{}{
		{"Portfolio", "B2B Delivery"},
		{"Period", "2025-09-10", "2025-09-17"},
		{"Comparison Period", "2025-09-03", "2025-09-09"},
		{"As of", "2025-09-17"},
	}
}

func TestParseWorkbookHappyPath(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "GREEN", "UP", "Bob", "M1"},
			{"Beta", "yellow", "down", "Ann", "M3"},
		},
		"Highlights": {
			{"Project", "Description"},
			{"Alpha", "UAT signed off"},
		},
		"Lowlights": {
			{"Project", "Description"},
			{"", "Vendor contract delayed"},
		},
		"Milestones": {
			{"Project", "Milestone", "Owner", "Due Date", "Status", "Update"},
			{"Alpha", "M1", "Bob", "2025-10-01", "In Progress", "On track"},
			{"Beta", "M3", "Ann", "2025-10-15", "45%", ""},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}

	d := res.Data
	if d.Headers.Portfolio != "B2B Delivery" || d.Headers.PeriodStart != "2025-09-10" || d.Headers.PeriodEnd != "2025-09-17" {
		t.Errorf("headers = %+v", d.Headers)
	}
	if d.Headers.ComparisonStart != "2025-09-03" || d.Headers.ComparisonEnd != "2025-09-09" {
		t.Errorf("comparison = %q %q", d.Headers.ComparisonStart, d.Headers.ComparisonEnd)
	}

	if len(d.Status) != 2 {
		t.Fatalf("len(status) = %d", len(d.Status))
	}
	if d.Status[0].Color != domain.ColorGreen || d.Status[0].Trend != domain.TrendUp {
		t.Errorf("status[0] = %+v, want canonicalized green/up", d.Status[0])
	}
	if d.Status[1].Color != domain.ColorAmber {
		t.Errorf("status[1].Color = %q, yellow should normalize to amber", d.Status[1].Color)
	}

	if len(d.Highlights) != 1 || d.Highlights[0].Project != "Alpha" {
		t.Errorf("highlights = %+v", d.Highlights)
	}
	if len(d.Lowlights) != 1 || d.Lowlights[0].Project != "" {
		t.Errorf("lowlights = %+v", d.Lowlights)
	}

	if len(d.Milestones) != 2 {
		t.Fatalf("len(milestones) = %d", len(d.Milestones))
	}
	if d.Milestones[0].Badge != domain.BadgeInProgress {
		t.Errorf("milestones[0].Badge = %q", d.Milestones[0].Badge)
	}
	if d.Milestones[1].Badge != "45%" {
		t.Errorf("milestones[1].Badge = %q, percentage should pass through", d.Milestones[1].Badge)
	}
}

func TestParseWorkbookAccumulatesRowErrors(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "GREEN", "UP", "Bob", "M1"},
			{"Beta", "purple", "sideways", "Ann", "M3"},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if res.OK {
		t.Fatal("res.OK = true, want false")
	}
	if res.Data != nil {
		t.Error("res.Data set on a failed import")
	}
	// Exactly one error: the color is invalid, the trend is merely coerced.
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	e := res.Errors[0]
	if e.Section != SheetStatus || e.Row != 3 || e.Field != "status" {
		t.Errorf("error = %+v, want Status row 3 status", e)
	}
	if !strings.Contains(e.Reason, "purple") {
		t.Errorf("error reason %q should name the bad value", e.Reason)
	}
}

func TestParseWorkbookMissingPortfolio(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if res.OK {
		t.Fatal("import without a portfolio name must fail")
	}
	found := false
	for _, e := range res.Errors {
		if e.Section == SheetHeaders && e.Field == "portfolio" {
			found = true
		}
	}
	if !found {
		t.Errorf("no portfolio error in %v", res.Errors)
	}
}

func TestParseWorkbookOptionalSheetsWarn(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}
	warned := map[string]bool{}
	for _, w := range res.Warnings {
		warned[w.Section] = true
	}
	for _, sheet := range []string{SheetHighlights, SheetLowlights, SheetMilestones, SheetMetrics} {
		if !warned[sheet] {
			t.Errorf("missing optional sheet %s produced no warning; warnings: %v", sheet, res.Warnings)
		}
	}
}

func TestParseWorkbookStrictRequiresMilestones(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
		},
	})

	p := NewParser(testLogger(t), true, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if res.OK {
		t.Fatal("strict mode must reject a workbook without a Milestones sheet")
	}
}

func TestParseWorkbookSheetNamesCaseInsensitive(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"headers": headerRows(),
		"STATUS": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}
	if len(res.Data.Status) != 1 {
		t.Errorf("len(status) = %d", len(res.Data.Status))
	}
}

func TestParseWorkbookHeaderlessListFallback(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
		},
		"Highlights": {
			{"Highlights"},
			{"UAT signed off"},
			{""},
			{"Release 1.2 shipped"},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}
	h := res.Data.Highlights
	if len(h) != 2 || h[0].Description != "UAT signed off" || h[1].Description != "Release 1.2 shipped" {
		t.Errorf("highlights = %+v", h)
	}
}

func TestParseWorkbookDerivesColorFromMetrics(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "", "up", "Bob", "M1"},
		},
		"Metrics": {
			{"Project", "SPI", "CPI", "Sev1", "Sev2", "Open Issues", "Risk Score", "Completion"},
			{"Alpha", "1.02", "0.99", "0", "0", "4", "0.2", "80%"},
		},
	})

	p := NewParser(testLogger(t), false, rag.NewEvaluator(rag.DefaultThresholds()))
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}
	if len(res.Data.Status) != 1 || res.Data.Status[0].Color != domain.ColorGreen {
		t.Fatalf("status = %+v, want derived green", res.Data.Status)
	}
	derived := false
	for _, w := range res.Warnings {
		if w.Section == SheetStatus && strings.Contains(w.Message, "derived") {
			derived = true
		}
	}
	if !derived {
		t.Errorf("no derivation warning in %v", res.Warnings)
	}

	m := res.Data.Metrics
	if len(m) != 1 || m[0].SPI == nil || *m[0].SPI != 1.02 {
		t.Fatalf("metrics = %+v", m)
	}
	if m[0].MilestoneCompletion == nil || *m[0].MilestoneCompletion != 0.8 {
		t.Errorf("completion = %v, want 0.8 from the percent cell", m[0].MilestoneCompletion)
	}
}

func TestParseWorkbookSuggestsEntriesFromMetrics(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
			{"Beta", "red", "down", "Ann", "M3"},
		},
		"Lowlights": {
			{"Project", "Description"},
			{"Beta", "Critical defect backlog growing"},
		},
		"Metrics": {
			{"Project", "SPI", "CPI", "Sev1", "Sev2", "Open Issues", "Risk Score", "Completion"},
			{"Alpha", "1.08", "1.0", "0", "1", "2", "0.2", "0.5"},
			{"Beta", "1.0", "0.90", "3", "1", "9", "0.8", "0.4"},
		},
	})

	p := NewParser(testLogger(t), false, rag.NewEvaluator(rag.DefaultThresholds()))
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}

	var highlightMsgs, lowlightMsgs []string
	for _, w := range res.Warnings {
		switch w.Section {
		case SheetHighlights:
			highlightMsgs = append(highlightMsgs, w.Message)
		case SheetLowlights:
			lowlightMsgs = append(lowlightMsgs, w.Message)
		}
	}

	// Alpha's SPI crossed the highlight trigger and no highlight covers it.
	found := false
	for _, m := range highlightMsgs {
		if strings.Contains(m, `"Alpha"`) && strings.Contains(m, "Schedule Performance Exceeds Target") {
			found = true
		}
	}
	if !found {
		t.Errorf("no schedule highlight suggestion for Alpha in %v", highlightMsgs)
	}

	// Beta already carries a lowlight, so its triggered lowlights stay quiet.
	for _, m := range lowlightMsgs {
		if strings.Contains(m, `"Beta"`) {
			t.Errorf("unexpected lowlight suggestion for covered project: %q", m)
		}
	}
}

func TestParseWorkbookMissingColorWithoutMetricsErrors(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "", "up", "Bob", "M1"},
		},
	})

	p := NewParser(testLogger(t), false, rag.NewEvaluator(rag.DefaultThresholds()))
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if res.OK {
		t.Fatal("blank color with no metrics must be an error")
	}
	if len(res.Errors) != 1 || res.Errors[0].Field != "status" {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestParseWorkbookLookups(t *testing.T) {
	r := buildWorkbook(t, map[string][][]interface{}{
		"Headers": headerRows(),
		"Status": {
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
			{"Alpha", "green", "up", "Bob", "M1"},
		},
		"Lookups": {
			{"status", "green", "amber", "red"},
			{"trend", "up", "flat", "down"},
			{""},
		},
	})

	p := NewParser(testLogger(t), false, nil)
	res, err := p.ParseWorkbook(r)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if !res.OK {
		t.Fatalf("res.OK = false, errors: %v", res.Errors)
	}
	lk := res.Data.Lookups
	if len(lk["status"]) != 3 || lk["status"][0] != "green" {
		t.Errorf("lookups[status] = %v", lk["status"])
	}
	if len(lk["trend"]) != 3 {
		t.Errorf("lookups[trend] = %v", lk["trend"])
	}
}

func TestParseWorkbookUnreadableInput(t *testing.T) {
	p := NewParser(testLogger(t), false, nil)
	if _, err := p.ParseWorkbook(bytes.NewReader([]byte("not a zip archive"))); err == nil {
		t.Fatal("garbage input must return an error")
	}
}
