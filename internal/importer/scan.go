package importer

import (
	"strings"
)

// Header and table discovery heuristics. These are load-bearing: uploads are
// loosely structured, so sections are located by keyword matching rather than
// fixed cell addresses. Everything here is pure so it can be tested against
// synthetic rows without a workbook.

// headerScanLimit bounds how many leading rows are scanned for a table header.
const headerScanLimit = 20

// FindHeaderRow scans the first rows of a section for a row whose cells
// collectively match at least half of the expected column keywords
// (case-insensitive substring). It returns the header row index and a
// keyword -> column index map for the cells that matched.
func FindHeaderRow(rows [][]string, keywords []string) (int, map[string]int, bool) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		cols := matchColumns(rows[i], keywords)
		if len(cols)*2 >= len(keywords) {
			return i, cols, true
		}
	}
	return 0, nil, false
}

// matchColumns maps each keyword to the first cell in the row containing it.
func matchColumns(row []string, keywords []string) map[string]int {
	cols := make(map[string]int)
	for _, kw := range keywords {
		for c, cell := range row {
			if strings.Contains(strings.ToLower(cell), kw) {
				cols[kw] = c
				break
			}
		}
	}
	return cols
}

// cellAt returns the trimmed cell at col, tolerating ragged rows.
func cellAt(row []string, col int, ok bool) string {
	if !ok || col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// looksLikeKeyword reports whether a cell reads as a section or column label
// rather than content. Used by the list-section fallback so literal headings
// are not ingested as items.
func looksLikeKeyword(cell string, keywords []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(cell))
	for _, kw := range keywords {
		if lowered == kw {
			return true
		}
	}
	return false
}

// findMetaValue scans leading rows for a label cell containing any of the
// given keywords and returns the first non-empty cell to its right.
func findMetaValue(rows [][]string, keywords ...string) string {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		for c, cell := range rows[i] {
			lowered := strings.ToLower(cell)
			for _, kw := range keywords {
				if strings.Contains(lowered, kw) {
					for v := c + 1; v < len(rows[i]); v++ {
						if s := strings.TrimSpace(rows[i][v]); s != "" {
							return s
						}
					}
				}
			}
		}
	}
	return ""
}

// findMetaPair is findMetaValue for label rows carrying two values, such as a
// period start/end pair. Cells containing any exclude word are skipped so
// "period" does not also claim the "comparison period" row.
func findMetaPair(rows [][]string, exclude []string, keywords ...string) (string, string) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		for c, cell := range rows[i] {
			lowered := strings.ToLower(cell)
			if containsAny(lowered, exclude) {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(lowered, kw) {
					var vals []string
					for v := c + 1; v < len(rows[i]) && len(vals) < 2; v++ {
						if s := strings.TrimSpace(rows[i][v]); s != "" {
							vals = append(vals, s)
						}
					}
					switch len(vals) {
					case 2:
						return vals[0], vals[1]
					case 1:
						return vals[0], ""
					}
				}
			}
		}
	}
	return "", ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
