package rag

import (
	"fmt"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// Trigger values for material-impact detection. Performance indices within
// one-twentieth of plan stay quiet; beyond that a suggestion fires.
const (
	highlightSPIMin        = 1.05
	highlightCPIMin        = 1.05
	highlightCompletionMin = 0.95
	lowlightSPIMax         = 0.95
	lowlightCPIMax         = 0.95
	lowlightSev1Min        = 1
	lowlightRiskMin        = 0.6
)

// Suggestion is a metric-driven highlight or lowlight candidate for one
// project. Positive marks a highlight, otherwise a lowlight.
type Suggestion struct {
	Project     string
	Category    string
	Title       string
	Description string
	Positive    bool
}

// Detect inspects one metrics row for material positive or negative signals:
// performance indices past their trigger values, a clean or critical defect
// count, strong milestone completion, or high risk exposure. Rows with no
// metric past a trigger yield nothing.
func Detect(m *domain.MetricsRow) []Suggestion {
	if m == nil {
		return nil
	}
	var out []Suggestion

	if m.SPI != nil {
		switch {
		case *m.SPI >= highlightSPIMin:
			out = append(out, Suggestion{
				Project:     m.Project,
				Category:    "schedule",
				Title:       "Schedule Performance Exceeds Target",
				Description: fmt.Sprintf("SPI at %.2f, indicating ahead of schedule", *m.SPI),
				Positive:    true,
			})
		case *m.SPI <= lowlightSPIMax:
			out = append(out, Suggestion{
				Project:     m.Project,
				Category:    "schedule",
				Title:       "Schedule Slippage Detected",
				Description: fmt.Sprintf("SPI at %.2f, indicating behind schedule", *m.SPI),
			})
		}
	}

	if m.CPI != nil {
		switch {
		case *m.CPI >= highlightCPIMin:
			out = append(out, Suggestion{
				Project:     m.Project,
				Category:    "cost",
				Title:       "Cost Performance Under Budget",
				Description: fmt.Sprintf("CPI at %.2f, indicating cost savings", *m.CPI),
				Positive:    true,
			})
		case *m.CPI <= lowlightCPIMax:
			out = append(out, Suggestion{
				Project:     m.Project,
				Category:    "cost",
				Title:       "Cost Overrun Risk",
				Description: fmt.Sprintf("CPI at %.2f, indicating cost overrun", *m.CPI),
			})
		}
	}

	if m.Sev1Defects != nil && m.Sev2Defects != nil &&
		*m.Sev1Defects == 0 && *m.Sev2Defects == 0 {
		out = append(out, Suggestion{
			Project:     m.Project,
			Category:    "quality",
			Title:       "Zero Critical Defects",
			Description: "No Severity 1 or 2 defects in current period",
			Positive:    true,
		})
	}
	if m.Sev1Defects != nil && *m.Sev1Defects >= lowlightSev1Min {
		out = append(out, Suggestion{
			Project:     m.Project,
			Category:    "quality",
			Title:       "Critical Defects Present",
			Description: fmt.Sprintf("%d Severity 1 defects open", *m.Sev1Defects),
		})
	}

	if m.MilestoneCompletion != nil && *m.MilestoneCompletion > highlightCompletionMin {
		out = append(out, Suggestion{
			Project:     m.Project,
			Category:    "delivery",
			Title:       "Strong Milestone Achievement",
			Description: fmt.Sprintf("%.0f%% milestone completion rate", *m.MilestoneCompletion*100),
			Positive:    true,
		})
	}

	if m.RiskScore != nil && *m.RiskScore > lowlightRiskMin {
		out = append(out, Suggestion{
			Project:     m.Project,
			Category:    "risk",
			Title:       "High Risk Exposure",
			Description: fmt.Sprintf("Risk score at %.2f", *m.RiskScore),
		})
	}

	return out
}
