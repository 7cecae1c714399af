package domain

import (
	"regexp"
	"strings"
)

// StatusColor is a RAG health color, canonicalized to lowercase.
type StatusColor string

const (
	ColorGreen StatusColor = "green"
	ColorAmber StatusColor = "amber"
	ColorRed   StatusColor = "red"
)

// Trend is a direction indicator, canonicalized to lowercase.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Canonical milestone status badges. A percentage string matching
// PercentBadgePattern is also a valid badge.
const (
	BadgeCompleted  = "Completed"
	BadgeInProgress = "In Progress"
	BadgePending    = "Pending"
	BadgeAtRisk     = "At Risk"
)

var PercentBadgePattern = regexp.MustCompile(`^\d+%$`)

// ParseStatusColor coerces free input into a StatusColor. Input is
// case-insensitive and "yellow" is accepted as amber. The second return is
// false for unrecognized input; callers decide whether that is an error
// (parser) or a fail-open default (view layer).
func ParseStatusColor(s string) (StatusColor, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green":
		return ColorGreen, true
	case "amber", "yellow":
		return ColorAmber, true
	case "red":
		return ColorRed, true
	}
	return "", false
}

// ParseTrend coerces free input into a Trend. Unrecognized values fall open to
// flat: the spreadsheet column is advisory and "sideways"/"stable"/blank all
// render as the flat glyph.
func ParseTrend(s string) Trend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "improving", "↑":
		return TrendUp
	case "down", "declining", "↓":
		return TrendDown
	}
	return TrendFlat
}

// ParseBadge canonicalizes a milestone status badge. Known badges match
// case-insensitively; percentage strings pass through trimmed. The second
// return is false for anything else.
func ParseBadge(s string) (string, bool) {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "completed", "complete", "done":
		return BadgeCompleted, true
	case "in progress", "in-progress", "inprogress":
		return BadgeInProgress, true
	case "pending", "not started":
		return BadgePending, true
	case "at risk", "at-risk":
		return BadgeAtRisk, true
	}
	if PercentBadgePattern.MatchString(t) {
		return t, true
	}
	return "", false
}
