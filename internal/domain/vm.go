package domain

// DashboardVM is the display-ready projection of a PortfolioSnapshot. It is
// derived, cached for serving, and never a source of truth.
type DashboardVM struct {
	Header      HeaderVM      `json:"header"`
	Summary     SummaryVM     `json:"summary"`
	StatusTable []StatusVM    `json:"status_table"`
	Highlights  []string      `json:"highlights"`
	Lowlights   []string      `json:"lowlights"`
	Milestones  []MilestoneVM `json:"milestones"`
}

type HeaderVM struct {
	Portfolio        string            `json:"portfolio"`
	Period           string            `json:"period"`
	ComparisonPeriod string            `json:"comparison_period,omitempty"`
	ReportDate       string            `json:"report_date"`
	Titles           map[string]string `json:"titles,omitempty"`
}

// SummaryVM is the executive health distribution across the status table.
type SummaryVM struct {
	Total        int    `json:"total"`
	Green        int    `json:"green"`
	Amber        int    `json:"amber"`
	Red          int    `json:"red"`
	GreenPercent string `json:"green_percent"`
	AmberPercent string `json:"amber_percent"`
	RedPercent   string `json:"red_percent"`
}

type StatusVM struct {
	Project       string `json:"project"`
	StatusClass   string `json:"status_class"`
	TrendGlyph    string `json:"trend_glyph"`
	Manager       string `json:"manager"`
	NextMilestone string `json:"next_milestone"`
}

type MilestoneVM struct {
	Project    string `json:"project"`
	Milestone  string `json:"milestone"`
	Owner      string `json:"owner"`
	Due        string `json:"due"`
	BadgeClass string `json:"badge_class"`
	Update     string `json:"update"`
}
