package testutil

import (
	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// Portfolio builds a small valid domain snapshot for store tests.
func Portfolio(statusRows ...domain.StatusRow) *domain.PortfolioSnapshot {
	if len(statusRows) == 0 {
		statusRows = []domain.StatusRow{
			{Project: "Alpha", Color: domain.ColorGreen, Trend: domain.TrendUp, Manager: "Bob", NextMilestone: "M1"},
		}
	}
	for i := range statusRows {
		statusRows[i].Order = i
	}
	return &domain.PortfolioSnapshot{
		Headers: domain.Headers{
			Portfolio:   "B2B Delivery",
			PeriodStart: "2025-09-10",
			PeriodEnd:   "2025-09-17",
			ReportDate:  "2025-09-17",
		},
		Status:     statusRows,
		Highlights: []domain.HighlightLowlight{{Kind: "highlight", Project: "Alpha", Description: "UAT signed off", Order: 0}},
		Lowlights:  []domain.HighlightLowlight{{Kind: "lowlight", Description: "Vendor contract delayed", Order: 0}},
		Milestones: []domain.MilestoneRow{
			{Project: "Alpha", Milestone: "M1", Owner: "Bob", DueDate: "2025-10-01", Badge: domain.BadgeInProgress, Order: 0},
		},
	}
}
