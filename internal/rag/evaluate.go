package rag

import (
	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// Evaluator derives a RAG color from quantitative metrics when a status row
// carries no explicit color. Overall status is the worst of the dimensions
// that have data; confidence reflects how many dimensions contributed.
type Evaluator struct {
	thresholds Thresholds
}

func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{thresholds: t}
}

func severity(c domain.StatusColor) int {
	switch c {
	case domain.ColorGreen:
		return 0
	case domain.ColorAmber:
		return 1
	}
	return 2
}

func colorFromSeverity(s int) domain.StatusColor {
	switch s {
	case 0:
		return domain.ColorGreen
	case 1:
		return domain.ColorAmber
	}
	return domain.ColorRed
}

func (e *Evaluator) scheduleHealth(spi float64) domain.StatusColor {
	switch {
	case spi >= e.thresholds.Schedule.GreenMin:
		return domain.ColorGreen
	case spi >= e.thresholds.Schedule.AmberMin:
		return domain.ColorAmber
	}
	return domain.ColorRed
}

func (e *Evaluator) costHealth(cpi float64) domain.StatusColor {
	switch {
	case cpi >= e.thresholds.Cost.GreenMin:
		return domain.ColorGreen
	case cpi >= e.thresholds.Cost.AmberMin:
		return domain.ColorAmber
	}
	return domain.ColorRed
}

func (e *Evaluator) qualityHealth(sev1, sev2 int) domain.StatusColor {
	q := e.thresholds.Quality
	switch {
	case sev1 <= q.GreenSev1Max && sev2 <= q.GreenSev2Max:
		return domain.ColorGreen
	case sev1 <= q.AmberSev1Max && sev2 <= q.AmberSev2Max:
		return domain.ColorAmber
	}
	return domain.ColorRed
}

func (e *Evaluator) riskHealth(score float64) domain.StatusColor {
	switch {
	case score <= e.thresholds.Risk.GreenMin:
		return domain.ColorGreen
	case score <= e.thresholds.Risk.AmberMin:
		return domain.ColorAmber
	}
	return domain.ColorRed
}

// Evaluate computes the worst-of status across schedule, cost, quality and
// risk for one metrics row. Dimensions without data are skipped. The boolean
// is false when no dimension had data at all; confidence is the fraction of
// the four dimensions that contributed.
func (e *Evaluator) Evaluate(m *domain.MetricsRow) (domain.StatusColor, float64, bool) {
	if m == nil {
		return "", 0, false
	}
	worst := -1
	contributed := 0

	if m.SPI != nil {
		worst = max(worst, severity(e.scheduleHealth(*m.SPI)))
		contributed++
	}
	if m.CPI != nil {
		worst = max(worst, severity(e.costHealth(*m.CPI)))
		contributed++
	}
	if m.Sev1Defects != nil || m.Sev2Defects != nil {
		sev1, sev2 := 0, 0
		if m.Sev1Defects != nil {
			sev1 = *m.Sev1Defects
		}
		if m.Sev2Defects != nil {
			sev2 = *m.Sev2Defects
		}
		worst = max(worst, severity(e.qualityHealth(sev1, sev2)))
		contributed++
	}
	if m.RiskScore != nil {
		worst = max(worst, severity(e.riskHealth(*m.RiskScore)))
		contributed++
	}

	if worst < 0 {
		return "", 0, false
	}
	return colorFromSeverity(worst), float64(contributed) / 4, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
