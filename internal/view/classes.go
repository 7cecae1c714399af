package view

import (
	"strings"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// Display class tokens and glyphs. Each mapping is a single pure function so
// the default-on-unknown behavior stays in one place in both directions.

const (
	GlyphUp   = "↑"
	GlyphDown = "↓"
	GlyphFlat = "→"
)

// StatusClass maps a status color to its display class token. Unrecognized
// input fails open to "amber": an unknown health state needs attention, it is
// never silently healthy.
func StatusClass(c domain.StatusColor) string {
	if parsed, ok := domain.ParseStatusColor(string(c)); ok {
		return string(parsed)
	}
	return string(domain.ColorAmber)
}

// ColorFromClass is the inverse of StatusClass.
func ColorFromClass(class string) domain.StatusColor {
	if parsed, ok := domain.ParseStatusColor(class); ok {
		return parsed
	}
	return domain.ColorAmber
}

// TrendGlyph maps a trend to its arrow glyph. Anything unrecognized renders
// flat.
func TrendGlyph(t domain.Trend) string {
	switch t {
	case domain.TrendUp:
		return GlyphUp
	case domain.TrendDown:
		return GlyphDown
	}
	return GlyphFlat
}

// TrendFromGlyph is the inverse of TrendGlyph.
func TrendFromGlyph(glyph string) domain.Trend {
	switch glyph {
	case GlyphUp:
		return domain.TrendUp
	case GlyphDown:
		return domain.TrendDown
	}
	return domain.TrendFlat
}

// BadgeClass classifies a milestone status badge into a display class.
// Percentages count as in progress. Free-text badges that merely mention
// progress or risk still land in their bucket; anything else falls into
// "pending", never into "completed".
func BadgeClass(badge string) string {
	canonical, ok := domain.ParseBadge(badge)
	if ok {
		switch canonical {
		case domain.BadgeCompleted:
			return "completed"
		case domain.BadgeInProgress:
			return "in-progress"
		case domain.BadgeAtRisk:
			return "at-risk"
		case domain.BadgePending:
			return "pending"
		}
		// Remaining canonical form is a percentage.
		return "in-progress"
	}
	lowered := strings.ToLower(badge)
	switch {
	case strings.Contains(lowered, "progress"):
		return "in-progress"
	case strings.Contains(lowered, "risk"):
		return "at-risk"
	}
	return "pending"
}

// BadgeFromClass is the inverse of BadgeClass. Percentage badges collapse to
// "In Progress"; that loss is one-directional and documented.
func BadgeFromClass(class string) string {
	switch class {
	case "completed":
		return domain.BadgeCompleted
	case "in-progress":
		return domain.BadgeInProgress
	case "at-risk":
		return domain.BadgeAtRisk
	}
	return domain.BadgePending
}
