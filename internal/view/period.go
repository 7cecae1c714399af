package view

import (
	"fmt"
	"strings"
	"time"
)

var periodDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

func parsePeriodDate(s string) (time.Time, bool) {
	for _, layout := range periodDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatPeriod renders a start/end pair as one display string. Values that
// already read as prose (contain a space) are concatenated as-is; a pair of
// parseable calendar dates is formatted as "Jan 2 - Mar 4, 2006", with both
// years spelled out when they differ; anything else passes through unchanged.
func FormatPeriod(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" && end == "" {
		return ""
	}
	if end == "" {
		return start
	}
	if start == "" {
		return end
	}
	if strings.Contains(start, " ") || strings.Contains(end, " ") {
		return start + " - " + end
	}
	s, okS := parsePeriodDate(start)
	e, okE := parsePeriodDate(end)
	if okS && okE {
		if s.Year() == e.Year() {
			return fmt.Sprintf("%s - %s, %d", s.Format("Jan 2"), e.Format("Jan 2"), e.Year())
		}
		return fmt.Sprintf("%s - %s", s.Format("Jan 2, 2006"), e.Format("Jan 2, 2006"))
	}
	return start + " - " + end
}

// SplitPeriod recovers a start/end pair from a display period string. Exact
// recovery of the original domain values is not guaranteed; the result only
// needs to re-format to the same display string.
func SplitPeriod(period string) (start, end string) {
	period = strings.TrimSpace(period)
	if period == "" {
		return "", ""
	}
	if idx := strings.Index(period, " - "); idx >= 0 {
		return period[:idx], period[idx+3:]
	}
	return period, ""
}
