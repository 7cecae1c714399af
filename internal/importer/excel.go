package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	pkgerr "github.com/statusdeck/statusdeck-backend/internal/pkg/errors"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/rag"
)

// Sheet names recognized in an upload, matched case-insensitively.
const (
	SheetHeaders    = "Headers"
	SheetStatus     = "Status"
	SheetHighlights = "Highlights"
	SheetLowlights  = "Lowlights"
	SheetMilestones = "Milestones"
	SheetMetrics    = "Metrics"
	SheetLookups    = "Lookups"
)

// Parser adapts untrusted uploads into the domain schema. Strict mode makes
// the Milestones sheet mandatory; the evaluator, when present, fills missing
// status colors from metrics.
type Parser struct {
	log       *logger.Logger
	strict    bool
	evaluator *rag.Evaluator
}

func NewParser(log *logger.Logger, strict bool, evaluator *rag.Evaluator) *Parser {
	return &Parser{
		log:       log.With("component", "importer"),
		strict:    strict,
		evaluator: evaluator,
	}
}

// ParseWorkbook reads an xlsx upload into the domain schema, accumulating
// every discoverable row-level problem. Only an unreadable workbook returns a
// Go error; everything else lands in the Result.
func (p *Parser) ParseWorkbook(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", pkgerr.ErrStructural, err)
	}
	defer f.Close()

	sheets := make(map[string]string)
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(strings.TrimSpace(name))] = name
	}

	res := &Result{}
	data := &domain.PortfolioSnapshot{
		Status:     []domain.StatusRow{},
		Highlights: []domain.HighlightLowlight{},
		Lowlights:  []domain.HighlightLowlight{},
		Milestones: []domain.MilestoneRow{},
	}

	p.parseHeaders(f, sheets, res, data)
	p.parseMetrics(f, sheets, res, data)
	p.parseStatus(f, sheets, res, data)
	data.Highlights = p.parseList(f, sheets, SheetHighlights, "highlight", res)
	data.Lowlights = p.parseList(f, sheets, SheetLowlights, "lowlight", res)
	p.parseMilestones(f, sheets, res, data)
	p.parseLookups(f, sheets, res, data)
	p.suggestEntries(res, data)

	p.log.Debug("workbook parsed",
		"status_rows", len(data.Status),
		"milestones", len(data.Milestones),
		"errors", len(res.Errors),
		"warnings", len(res.Warnings))
	return res.finalize(data), nil
}

func sheetRows(f *excelize.File, sheets map[string]string, want string) ([][]string, bool) {
	name, ok := sheets[strings.ToLower(want)]
	if !ok {
		return nil, false
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, false
	}
	return rows, true
}

func (p *Parser) parseHeaders(f *excelize.File, sheets map[string]string, res *Result, data *domain.PortfolioSnapshot) {
	rows, ok := sheetRows(f, sheets, SheetHeaders)
	if !ok {
		res.addWarning(SheetHeaders, "optional sheet not found")
	} else {
		data.Headers.Portfolio = findMetaValue(rows, "portfolio", "programme", "program")
		data.Headers.ReportDate = findMetaValue(rows, "as of", "report date", "date")
		data.Headers.PeriodStart, data.Headers.PeriodEnd =
			findMetaPair(rows, []string{"comparison", "previous"}, "period")
		data.Headers.ComparisonStart, data.Headers.ComparisonEnd =
			findMetaPair(rows, nil, "comparison", "previous period")
	}
	if data.Headers.Portfolio == "" {
		res.addError(SheetHeaders, 0, "portfolio", "portfolio name is required")
	}
}

var statusColumns = []string{"project", "status", "trend", "manager", "milestone"}

func (p *Parser) parseStatus(f *excelize.File, sheets map[string]string, res *Result, data *domain.PortfolioSnapshot) {
	rows, ok := sheetRows(f, sheets, SheetStatus)
	if !ok {
		res.addError(SheetStatus, 0, "", "required sheet not found")
		return
	}
	headerIdx, cols, found := FindHeaderRow(rows, statusColumns)
	if !found {
		res.addError(SheetStatus, 0, "", "could not find a header row with project/status columns")
		return
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		rowNum := i + 1 // 1-based, as the user sees it
		row := rows[i]

		projCol, projOK := cols["project"]
		project := cellAt(row, projCol, projOK)
		if project == "" {
			// Blank trailing rows are tolerated, not reported.
			continue
		}

		colorCol, colorOK := cols["status"]
		rawColor := cellAt(row, colorCol, colorOK)
		color, valid := domain.ParseStatusColor(rawColor)
		if rawColor == "" {
			if derived, ok := p.deriveColor(data, project); ok {
				color = derived
				res.addWarning(SheetStatus, fmt.Sprintf("status for %q derived from metrics", project))
			} else {
				res.addError(SheetStatus, rowNum, "status", "status color is required")
				continue
			}
		} else if !valid {
			res.addError(SheetStatus, rowNum, "status", fmt.Sprintf("invalid status color %q", rawColor))
			continue
		}

		trendCol, trendOK := cols["trend"]
		managerCol, managerOK := cols["manager"]
		milestoneCol, milestoneOK := cols["milestone"]

		data.Status = append(data.Status, domain.StatusRow{
			Project:       project,
			Color:         color,
			Trend:         domain.ParseTrend(cellAt(row, trendCol, trendOK)),
			Manager:       cellAt(row, managerCol, managerOK),
			NextMilestone: cellAt(row, milestoneCol, milestoneOK),
			Order:         len(data.Status),
		})
	}
}

// suggestEntries surfaces metric-driven highlight and lowlight candidates as
// warnings. A project that already carries an entry of the matching kind stays
// quiet; suggestions never pre-fill the snapshot itself.
func (p *Parser) suggestEntries(res *Result, data *domain.PortfolioSnapshot) {
	covered := func(rows []domain.HighlightLowlight) map[string]bool {
		m := make(map[string]bool, len(rows))
		for _, row := range rows {
			m[row.Project] = true
		}
		return m
	}
	hasHighlight := covered(data.Highlights)
	hasLowlight := covered(data.Lowlights)

	for i := range data.Metrics {
		for _, s := range rag.Detect(&data.Metrics[i]) {
			sheet, seen := SheetLowlights, hasLowlight
			if s.Positive {
				sheet, seen = SheetHighlights, hasHighlight
			}
			if seen[s.Project] {
				continue
			}
			res.addWarning(sheet, fmt.Sprintf("suggested for %q: %s (%s)", s.Project, s.Title, s.Description))
		}
	}
}

func (p *Parser) deriveColor(data *domain.PortfolioSnapshot, project string) (domain.StatusColor, bool) {
	if p.evaluator == nil {
		return "", false
	}
	color, _, ok := p.evaluator.Evaluate(data.MetricsFor(project))
	return color, ok
}

var listColumns = []string{"project", "description"}

func (p *Parser) parseList(f *excelize.File, sheets map[string]string, sheet, kind string, res *Result) []domain.HighlightLowlight {
	out := []domain.HighlightLowlight{}
	rows, ok := sheetRows(f, sheets, sheet)
	if !ok {
		res.addWarning(sheet, "optional sheet not found")
		return out
	}

	headerIdx, cols, found := FindHeaderRow(rows, listColumns)
	if found {
		descCol, descOK := cols["description"]
		projCol, projOK := cols["project"]
		for i := headerIdx + 1; i < len(rows); i++ {
			desc := cellAt(rows[i], descCol, descOK)
			if desc == "" {
				continue
			}
			out = append(out, domain.HighlightLowlight{
				Kind:        kind,
				Project:     cellAt(rows[i], projCol, projOK),
				Description: desc,
				Order:       len(out),
			})
		}
		return out
	}

	// No header row: treat every non-empty, non-label first column cell as one
	// list item.
	res.addWarning(sheet, "could not find header row, treating first column as list items")
	labels := []string{kind, kind + "s", "description", "project"}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" || looksLikeKeyword(cell, labels) {
			continue
		}
		out = append(out, domain.HighlightLowlight{
			Kind:        kind,
			Description: cell,
			Order:       len(out),
		})
	}
	return out
}

var milestoneColumns = []string{"project", "milestone", "owner", "due", "status", "update"}

func (p *Parser) parseMilestones(f *excelize.File, sheets map[string]string, res *Result, data *domain.PortfolioSnapshot) {
	rows, ok := sheetRows(f, sheets, SheetMilestones)
	if !ok {
		if p.strict {
			res.addError(SheetMilestones, 0, "", "required sheet not found")
		} else {
			res.addWarning(SheetMilestones, "optional sheet not found")
		}
		return
	}
	headerIdx, cols, found := FindHeaderRow(rows, milestoneColumns)
	if !found {
		res.addWarning(SheetMilestones, "could not find header row, sheet skipped")
		return
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		rowNum := i + 1
		row := rows[i]

		projCol, projOK := cols["project"]
		msCol, msOK := cols["milestone"]
		project := cellAt(row, projCol, projOK)
		milestone := cellAt(row, msCol, msOK)
		if project == "" || milestone == "" {
			continue
		}

		badgeCol, badgeOK := cols["status"]
		rawBadge := cellAt(row, badgeCol, badgeOK)
		badge, valid := domain.ParseBadge(rawBadge)
		if rawBadge == "" {
			res.addError(SheetMilestones, rowNum, "status", "milestone status is required")
			continue
		}
		if !valid {
			res.addError(SheetMilestones, rowNum, "status", fmt.Sprintf("invalid milestone status %q", rawBadge))
			continue
		}

		ownerCol, ownerOK := cols["owner"]
		dueCol, dueOK := cols["due"]
		updateCol, updateOK := cols["update"]

		data.Milestones = append(data.Milestones, domain.MilestoneRow{
			Project:   project,
			Milestone: milestone,
			Owner:     cellAt(row, ownerCol, ownerOK),
			DueDate:   cellAt(row, dueCol, dueOK),
			Badge:     badge,
			Update:    cellAt(row, updateCol, updateOK),
			Order:     len(data.Milestones),
		})
	}
}

var metricsColumns = []string{"project", "spi", "cpi", "sev1", "sev2", "issue", "risk", "completion"}

func (p *Parser) parseMetrics(f *excelize.File, sheets map[string]string, res *Result, data *domain.PortfolioSnapshot) {
	rows, ok := sheetRows(f, sheets, SheetMetrics)
	if !ok {
		res.addWarning(SheetMetrics, "optional sheet not found")
		return
	}
	headerIdx, cols, found := FindHeaderRow(rows, metricsColumns)
	if !found {
		res.addWarning(SheetMetrics, "could not find header row, sheet skipped")
		return
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		projCol, projOK := cols["project"]
		project := cellAt(row, projCol, projOK)
		if project == "" {
			continue
		}
		m := domain.MetricsRow{Project: project}
		m.SPI = parseFloatCell(row, cols, "spi")
		m.CPI = parseFloatCell(row, cols, "cpi")
		m.Sev1Defects = parseIntCell(row, cols, "sev1")
		m.Sev2Defects = parseIntCell(row, cols, "sev2")
		m.OpenIssues = parseIntCell(row, cols, "issue")
		m.RiskScore = parseFloatCell(row, cols, "risk")
		m.MilestoneCompletion = parseFloatCell(row, cols, "completion")
		data.Metrics = append(data.Metrics, m)
	}
}

func (p *Parser) parseLookups(f *excelize.File, sheets map[string]string, res *Result, data *domain.PortfolioSnapshot) {
	rows, ok := sheetRows(f, sheets, SheetLookups)
	if !ok {
		return
	}
	lookups := make(map[string][]string)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(row[0])
		if key == "" {
			continue
		}
		var vals []string
		for _, cell := range row[1:] {
			if s := strings.TrimSpace(cell); s != "" {
				vals = append(vals, s)
			}
		}
		if len(vals) > 0 {
			lookups[strings.ToLower(key)] = vals
		}
	}
	if len(lookups) > 0 {
		data.Lookups = lookups
	}
}

// Numeric cells that fail to parse become absent, not zero and not an error.
// Percent cells normalize to fractions so "80%" and 0.8 mean the same thing.
func parseFloatCell(row []string, cols map[string]int, key string) *float64 {
	col, ok := cols[key]
	s := cellAt(row, col, ok)
	if s == "" {
		return nil
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	if percent {
		v /= 100
	}
	return &v
}

func parseIntCell(row []string, cols map[string]int, key string) *int {
	col, ok := cols[key]
	s := cellAt(row, col, ok)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}
