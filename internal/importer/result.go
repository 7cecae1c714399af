package importer

import (
	"fmt"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
)

// ValidationError is one field-level, row-addressable problem. Errors are
// data, not Go errors: parsing continues past them so the full set reaches the
// import report.
type ValidationError struct {
	Section string `json:"section"`
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason"`
}

func (e ValidationError) String() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s row %d, %s: %s", e.Section, e.Row, e.Field, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s, %s: %s", e.Section, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Section, e.Reason)
}

// ValidationWarning is a non-fatal note attached to a successful import.
type ValidationWarning struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// Result is the parser output. OK is true only when Errors is empty; the
// versioning store must never be invoked on OK=false.
type Result struct {
	OK       bool                      `json:"ok"`
	Data     *domain.PortfolioSnapshot `json:"data,omitempty"`
	Errors   []ValidationError         `json:"errors"`
	Warnings []ValidationWarning       `json:"warnings"`
}

func (r *Result) addError(section string, row int, field, reason string) {
	r.Errors = append(r.Errors, ValidationError{Section: section, Row: row, Field: field, Reason: reason})
}

func (r *Result) addWarning(section, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Section: section, Message: message})
}

func (r *Result) finalize(data *domain.PortfolioSnapshot) *Result {
	if r.Errors == nil {
		r.Errors = []ValidationError{}
	}
	if r.Warnings == nil {
		r.Warnings = []ValidationWarning{}
	}
	r.OK = len(r.Errors) == 0
	if r.OK {
		r.Data = data
	}
	return r
}
