package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	pkgerr "github.com/statusdeck/statusdeck-backend/internal/pkg/errors"
	"github.com/statusdeck/statusdeck-backend/internal/view"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseJSON adapts a JSON upload in either "domain" shape (PortfolioSnapshot)
// or "view" shape (DashboardVM). View-shape input is accepted only when
// current supplies the domain data the lossy transform cannot reconstruct;
// metrics and lookups are carried over from it.
func (p *Parser) ParseJSON(data []byte, current *domain.PortfolioSnapshot) (*Result, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", pkgerr.ErrStructural, err)
	}

	switch {
	case shape["headers"] != nil:
		return p.parseDomainJSON(data)
	case shape["header"] != nil || shape["status_table"] != nil:
		return p.parseViewJSON(data, current)
	}
	return nil, fmt.Errorf("%w: JSON matches neither domain nor view shape", pkgerr.ErrStructural)
}

func (p *Parser) parseDomainJSON(data []byte) (*Result, error) {
	var snapshot domain.PortfolioSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: malformed domain JSON: %v", pkgerr.ErrStructural, err)
	}
	res := &Result{}
	canonicalize(&snapshot, res)
	res.Errors = append(res.Errors, structuralErrors(&snapshot)...)
	p.suggestEntries(res, &snapshot)
	return res.finalize(&snapshot), nil
}

func (p *Parser) parseViewJSON(data []byte, current *domain.PortfolioSnapshot) (*Result, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: view-shaped JSON requires an existing current snapshot", pkgerr.ErrStructural)
	}
	var vm domain.DashboardVM
	if err := json.Unmarshal(data, &vm); err != nil {
		return nil, fmt.Errorf("%w: malformed view JSON: %v", pkgerr.ErrStructural, err)
	}
	snapshot := view.FromView(&vm)
	snapshot.Metrics = current.Metrics
	snapshot.Lookups = current.Lookups

	res := &Result{}
	canonicalize(&snapshot, res)
	res.Errors = append(res.Errors, structuralErrors(&snapshot)...)
	p.suggestEntries(res, &snapshot)
	return res.finalize(&snapshot), nil
}

// canonicalize runs the same total, error-accumulating pass the workbook path
// performs: enum coercion, silent drop of rows missing their identity key, and
// a field-level error for every remaining problem.
func canonicalize(d *domain.PortfolioSnapshot, res *Result) {
	if strings.TrimSpace(d.Headers.Portfolio) == "" {
		res.addError(SheetHeaders, 0, "portfolio", "portfolio name is required")
	}

	status := d.Status[:0]
	for i, row := range d.Status {
		if strings.TrimSpace(row.Project) == "" {
			continue
		}
		color, ok := domain.ParseStatusColor(string(row.Color))
		if !ok {
			res.addError(SheetStatus, i+1, "status", fmt.Sprintf("invalid status color %q", row.Color))
			continue
		}
		row.Color = color
		row.Trend = domain.ParseTrend(string(row.Trend))
		row.Order = len(status)
		status = append(status, row)
	}
	d.Status = status

	milestones := d.Milestones[:0]
	for i, row := range d.Milestones {
		if strings.TrimSpace(row.Project) == "" || strings.TrimSpace(row.Milestone) == "" {
			continue
		}
		badge, ok := domain.ParseBadge(row.Badge)
		if !ok {
			res.addError(SheetMilestones, i+1, "status", fmt.Sprintf("invalid milestone status %q", row.Badge))
			continue
		}
		row.Badge = badge
		row.Order = len(milestones)
		milestones = append(milestones, row)
	}
	d.Milestones = milestones

	d.Highlights = canonicalizeList("highlight", d.Highlights)
	d.Lowlights = canonicalizeList("lowlight", d.Lowlights)
}

func canonicalizeList(kind string, entries []domain.HighlightLowlight) []domain.HighlightLowlight {
	out := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.Description) == "" {
			continue
		}
		e.Kind = kind
		e.Order = len(out)
		out = append(out, e)
	}
	if out == nil {
		out = []domain.HighlightLowlight{}
	}
	return out
}

// structuralErrors runs struct-tag validation over the canonicalized snapshot
// and converts each violation into a row-addressable entry. After
// canonicalization this mostly guards numeric ranges in metrics.
func structuralErrors(d *domain.PortfolioSnapshot) []ValidationError {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Section: "document", Reason: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "Portfolio" && fe.Tag() == "required" {
			// Already reported by canonicalize.
			continue
		}
		out = append(out, ValidationError{
			Section: sectionFromNamespace(fe.Namespace()),
			Field:   strings.ToLower(fe.Field()),
			Reason:  fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return out
}

func sectionFromNamespace(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		// Trim any slice index: "Metrics[2]" -> "Metrics".
		section := parts[1]
		if idx := strings.Index(section, "["); idx > 0 {
			section = section[:idx]
		}
		return section
	}
	return "document"
}
