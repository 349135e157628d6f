package reports

import (
	"errors"
	"time"
)

// ErrUnknownMode rejects report requests for an unregistered mode.
var ErrUnknownMode = errors.New("reports: unknown report mode")

// ErrEmptyExport rejects file exports of reports with no data rows.
var ErrEmptyExport = errors.New("reports: nothing to export")

// Report is a finished tabular report. Amount cells are pre-formatted
// with two decimals so every output surface renders identically.
type Report struct {
	Mode        string     `json:"mode"`
	Title       string     `json:"title"`
	GeneratedAt time.Time  `json:"generated_at"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	// Totals is an optional footer row aligned with Columns.
	Totals []string `json:"totals,omitempty"`
	// Summary holds display-formatted headline figures, e.g. the total
	// collection with the school's currency symbol.
	Summary map[string]string `json:"summary,omitempty"`
}

// Request carries the caller-supplied report parameters. Every field
// except Mode is optional; modes ignore parameters they do not use.
type Request struct {
	Mode           string
	ClassID        string
	StudentID      string
	Classifier     string
	HeadID         string
	FeeCategoryID  string
	FeeGroupID     string
	AcademicYearID string
	// PaymentMode narrows online transaction reports to one mode.
	PaymentMode string
	// Search matches student or father name, case-insensitive.
	Search string
	From   time.Time
	To     time.Time
	// Date matches a single payment calendar date.
	Date time.Time
}
