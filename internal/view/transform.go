package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// ToView derives the display-ready dashboard projection from a domain
// snapshot. It is pure and deterministic: identical input yields identical
// output, which the boundary relies on for content hashing.
func ToView(d *domain.PortfolioSnapshot) domain.DashboardVM {
	vm := domain.DashboardVM{
		Header: domain.HeaderVM{
			Portfolio:        d.Headers.Portfolio,
			Period:           FormatPeriod(d.Headers.PeriodStart, d.Headers.PeriodEnd),
			ComparisonPeriod: FormatPeriod(d.Headers.ComparisonStart, d.Headers.ComparisonEnd),
			ReportDate:       d.Headers.ReportDate,
			Titles:           copyTitles(d.Headers.Titles),
		},
		StatusTable: make([]domain.StatusVM, 0, len(d.Status)),
		Highlights:  flatten(d.Highlights),
		Lowlights:   flatten(d.Lowlights),
		Milestones:  make([]domain.MilestoneVM, 0, len(d.Milestones)),
	}

	status := make([]domain.StatusRow, len(d.Status))
	copy(status, d.Status)
	sort.SliceStable(status, func(i, j int) bool { return status[i].Order < status[j].Order })
	for _, row := range status {
		vm.StatusTable = append(vm.StatusTable, domain.StatusVM{
			Project:       row.Project,
			StatusClass:   StatusClass(row.Color),
			TrendGlyph:    TrendGlyph(row.Trend),
			Manager:       row.Manager,
			NextMilestone: row.NextMilestone,
		})
	}
	vm.Summary = summarize(vm.StatusTable)

	milestones := make([]domain.MilestoneRow, len(d.Milestones))
	copy(milestones, d.Milestones)
	sort.SliceStable(milestones, func(i, j int) bool {
		if milestones[i].Project != milestones[j].Project {
			return milestones[i].Project < milestones[j].Project
		}
		return milestones[i].Order < milestones[j].Order
	})
	for _, row := range milestones {
		vm.Milestones = append(vm.Milestones, domain.MilestoneVM{
			Project:    row.Project,
			Milestone:  row.Milestone,
			Owner:      row.Owner,
			Due:        row.DueDate,
			BadgeClass: BadgeClass(row.Badge),
			Update:     row.Update,
		})
	}

	return vm
}

// FromView rebuilds a domain snapshot from a dashboard projection using the
// inverse of every ToView lookup table. Order fields come from array position.
// The transform is lossy toward the domain (metrics, lookups and percentage
// badges do not survive), but ToView(FromView(v)) == v holds for any v that
// ToView produced.
func FromView(vm *domain.DashboardVM) domain.PortfolioSnapshot {
	periodStart, periodEnd := SplitPeriod(vm.Header.Period)
	cmpStart, cmpEnd := SplitPeriod(vm.Header.ComparisonPeriod)

	d := domain.PortfolioSnapshot{
		Headers: domain.Headers{
			Portfolio:       vm.Header.Portfolio,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
			ComparisonStart: cmpStart,
			ComparisonEnd:   cmpEnd,
			ReportDate:      vm.Header.ReportDate,
			Titles:          copyTitles(vm.Header.Titles),
		},
		Status:     make([]domain.StatusRow, 0, len(vm.StatusTable)),
		Highlights: unflatten("highlight", vm.Highlights),
		Lowlights:  unflatten("lowlight", vm.Lowlights),
		Milestones: make([]domain.MilestoneRow, 0, len(vm.Milestones)),
	}

	for i, row := range vm.StatusTable {
		d.Status = append(d.Status, domain.StatusRow{
			Project:       row.Project,
			Color:         ColorFromClass(row.StatusClass),
			Trend:         TrendFromGlyph(row.TrendGlyph),
			Manager:       row.Manager,
			NextMilestone: row.NextMilestone,
			Order:         i,
		})
	}
	for i, row := range vm.Milestones {
		d.Milestones = append(d.Milestones, domain.MilestoneRow{
			Project:   row.Project,
			Milestone: row.Milestone,
			Owner:     row.Owner,
			DueDate:   row.Due,
			Badge:     BadgeFromClass(row.BadgeClass),
			Update:    row.Update,
			Order:     i,
		})
	}
	return d
}

func flatten(entries []domain.HighlightLowlight) []string {
	sorted := make([]domain.HighlightLowlight, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	out := make([]string, 0, len(sorted))
	for _, e := range sorted {
		if e.Project != "" {
			out = append(out, e.Project+": "+e.Description)
		} else {
			out = append(out, e.Description)
		}
	}
	return out
}

func unflatten(kind string, lines []string) []domain.HighlightLowlight {
	out := make([]domain.HighlightLowlight, 0, len(lines))
	for i, line := range lines {
		entry := domain.HighlightLowlight{Kind: kind, Description: line, Order: i}
		if idx := strings.Index(line, ": "); idx > 0 {
			entry.Project = line[:idx]
			entry.Description = line[idx+2:]
		}
		out = append(out, entry)
	}
	return out
}

func summarize(rows []domain.StatusVM) domain.SummaryVM {
	s := domain.SummaryVM{Total: len(rows)}
	for _, r := range rows {
		switch r.StatusClass {
		case string(domain.ColorGreen):
			s.Green++
		case string(domain.ColorRed):
			s.Red++
		default:
			s.Amber++
		}
	}
	s.GreenPercent = percent(s.Green, s.Total)
	s.AmberPercent = percent(s.Amber, s.Total)
	s.RedPercent = percent(s.Red, s.Total)
	return s
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
}

func copyTitles(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
