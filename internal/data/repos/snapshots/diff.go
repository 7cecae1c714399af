package snapshots

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// FieldChange is one header-level difference.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ChangeDetail is one same-key, different-content entity difference. From and
// To carry the serialized row content; comparison is structural, so even a
// whitespace difference counts.
type ChangeDetail struct {
	Key  string `json:"key"`
	From string `json:"from"`
	To   string `json:"to"`
}

type EntityDiff struct {
	Added   []string       `json:"added"`
	Removed []string       `json:"removed"`
	Changed []ChangeDetail `json:"changed"`
}

func (e EntityDiff) empty() bool {
	return len(e.Added) == 0 && len(e.Removed) == 0 && len(e.Changed) == 0
}

// DiffResult is the structural comparison of two snapshots' collections.
type DiffResult struct {
	Headers    []FieldChange `json:"headers"`
	Status     EntityDiff    `json:"status"`
	Highlights EntityDiff    `json:"highlights"`
	Lowlights  EntityDiff    `json:"lowlights"`
	Milestones EntityDiff    `json:"milestones"`
}

func (d *DiffResult) Empty() bool {
	return len(d.Headers) == 0 && d.Status.empty() && d.Highlights.empty() &&
		d.Lowlights.empty() && d.Milestones.empty()
}

// ComputeDiff structurally compares two domain snapshots. Entity matching uses
// the identity keys of each collection: project for status rows,
// (kind, project, description) for highlights and lowlights, and
// (project, milestone) for milestone rows. Display order is not part of the
// compared content.
func ComputeDiff(from, to *domain.PortfolioSnapshot) *DiffResult {
	res := &DiffResult{
		Status:     diffKeyed(statusEntries(from), statusEntries(to)),
		Highlights: diffKeyed(listEntries(from.Highlights), listEntries(to.Highlights)),
		Lowlights:  diffKeyed(listEntries(from.Lowlights), listEntries(to.Lowlights)),
		Milestones: diffKeyed(milestoneEntries(from), milestoneEntries(to)),
	}
	res.Headers = diffHeaders(from.Headers, to.Headers)
	return res
}

func diffHeaders(from, to domain.Headers) []FieldChange {
	fields := []struct {
		name     string
		from, to string
	}{
		{"portfolio", from.Portfolio, to.Portfolio},
		{"period_start", from.PeriodStart, to.PeriodStart},
		{"period_end", from.PeriodEnd, to.PeriodEnd},
		{"comparison_start", from.ComparisonStart, to.ComparisonStart},
		{"comparison_end", from.ComparisonEnd, to.ComparisonEnd},
		{"report_date", from.ReportDate, to.ReportDate},
	}
	changes := []FieldChange{}
	for _, f := range fields {
		if f.from != f.to {
			changes = append(changes, FieldChange{Field: f.name, From: f.from, To: f.to})
		}
	}
	if !maps.Equal(from.Titles, to.Titles) {
		changes = append(changes, FieldChange{
			Field: "titles",
			From:  marshalRow(from.Titles),
			To:    marshalRow(to.Titles),
		})
	}
	return changes
}

type entry struct {
	key     string
	content string
}

func diffKeyed(from, to []entry) EntityDiff {
	d := EntityDiff{Added: []string{}, Removed: []string{}, Changed: []ChangeDetail{}}
	fromByKey := make(map[string]string, len(from))
	for _, e := range from {
		fromByKey[e.key] = e.content
	}
	toByKey := make(map[string]string, len(to))
	for _, e := range to {
		toByKey[e.key] = e.content
	}
	for _, e := range to {
		prev, existed := fromByKey[e.key]
		switch {
		case !existed:
			d.Added = append(d.Added, e.key)
		case prev != e.content:
			d.Changed = append(d.Changed, ChangeDetail{Key: e.key, From: prev, To: e.content})
		}
	}
	for _, e := range from {
		if _, exists := toByKey[e.key]; !exists {
			d.Removed = append(d.Removed, e.key)
		}
	}
	return d
}

func statusEntries(d *domain.PortfolioSnapshot) []entry {
	out := make([]entry, 0, len(d.Status))
	for _, row := range d.Status {
		row.Order = 0
		out = append(out, entry{key: row.Project, content: marshalRow(row)})
	}
	return out
}

func listEntries(rows []domain.HighlightLowlight) []entry {
	out := make([]entry, 0, len(rows))
	for _, row := range rows {
		key := row.Description
		if row.Project != "" {
			key = row.Project + ": " + row.Description
		}
		row.Order = 0
		out = append(out, entry{key: key, content: marshalRow(row)})
	}
	return out
}

func milestoneEntries(d *domain.PortfolioSnapshot) []entry {
	out := make([]entry, 0, len(d.Milestones))
	for _, row := range d.Milestones {
		key := fmt.Sprintf("%s / %s", row.Project, row.Milestone)
		row.Order = 0
		out = append(out, entry{key: key, content: marshalRow(row)})
	}
	return out
}

func marshalRow(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
