package domain

// Headers carries report metadata. One per snapshot, immutable once created.
type Headers struct {
	Portfolio       string            `json:"portfolio" validate:"required"`
	PeriodStart     string            `json:"period_start"`
	PeriodEnd       string            `json:"period_end"`
	ComparisonStart string            `json:"comparison_start,omitempty"`
	ComparisonEnd   string            `json:"comparison_end,omitempty"`
	ReportDate      string            `json:"report_date"`
	Titles          map[string]string `json:"titles,omitempty"`
}

// StatusRow is one project's health line in the status table.
type StatusRow struct {
	Project       string      `json:"project" validate:"required"`
	Color         StatusColor `json:"color" validate:"required,oneof=green amber red"`
	Trend         Trend       `json:"trend" validate:"omitempty,oneof=up down flat"`
	Manager       string      `json:"manager,omitempty"`
	NextMilestone string      `json:"next_milestone,omitempty"`
	Order         int         `json:"order"`
}

// HighlightLowlight is a single highlight or lowlight entry. Identity for
// diffing is (kind, project, description).
type HighlightLowlight struct {
	Kind        string `json:"kind" validate:"oneof=highlight lowlight"`
	Project     string `json:"project,omitempty"`
	Description string `json:"description" validate:"required"`
	Order       int    `json:"order"`
}

// MilestoneRow is one milestone line. Identity for diffing is (project, milestone).
type MilestoneRow struct {
	Project   string `json:"project" validate:"required"`
	Milestone string `json:"milestone" validate:"required"`
	Owner     string `json:"owner,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	Badge     string `json:"badge" validate:"required"`
	Update    string `json:"update,omitempty"`
	Order     int    `json:"order"`
}

// MetricsRow holds quantitative health inputs for one project. Absent values
// stay nil; they are never coerced to zero.
type MetricsRow struct {
	Project             string   `json:"project" validate:"required"`
	SPI                 *float64 `json:"spi,omitempty"`
	CPI                 *float64 `json:"cpi,omitempty"`
	Sev1Defects         *int     `json:"sev1_defects,omitempty"`
	Sev2Defects         *int     `json:"sev2_defects,omitempty"`
	OpenIssues          *int     `json:"open_issues,omitempty"`
	RiskScore           *float64 `json:"risk_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	MilestoneCompletion *float64 `json:"milestone_completion,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// PortfolioSnapshot is the validated canonical upload: the unit of validation,
// transformation and versioning.
type PortfolioSnapshot struct {
	Headers    Headers             `json:"headers" validate:"required"`
	Status     []StatusRow         `json:"status" validate:"dive"`
	Highlights []HighlightLowlight `json:"highlights" validate:"dive"`
	Lowlights  []HighlightLowlight `json:"lowlights" validate:"dive"`
	Milestones []MilestoneRow      `json:"milestones" validate:"dive"`
	Metrics    []MetricsRow        `json:"metrics,omitempty" validate:"dive"`
	Lookups    map[string][]string `json:"lookups,omitempty"`
}

// MetricsFor returns the metrics row for a project, or nil.
func (p *PortfolioSnapshot) MetricsFor(project string) *MetricsRow {
	for i := range p.Metrics {
		if p.Metrics[i].Project == project {
			return &p.Metrics[i]
		}
	}
	return nil
}
