package reports

import (
	"sort"

	"github.com/campushub-erp/campushub/internal/fees"
)

// Shape selects how matched payment lines fold into report rows.
type Shape string

const (
	// ShapeLine emits one row per payment line.
	ShapeLine Shape = "line"
	// ShapeStudent emits one row per student.
	ShapeStudent Shape = "student"
	// ShapeHead emits one row per fee head plus a totals footer.
	ShapeHead Shape = "head"
	// ShapeConsolidated emits one row per student with a due column
	// per fee head.
	ShapeConsolidated Shape = "consolidated"
)

// DateField names which payment date column a range filter applies to.
type DateField string

const (
	DateFieldDue  DateField = "due"
	DateFieldPaid DateField = "paid"
)

// Mode describes one report variant declaratively. The divergences
// between variants are deliberate and load-bearing: headwise
// collection excludes installment lines, the group-wise report ignores
// concessions, and dues variants keep only strictly positive dues.
type Mode struct {
	Name  string
	Title string
	Shape Shape

	Statuses        []fees.PaymentStatus
	DuesOnly        bool
	WithConcessions bool

	ExcludeInstallments bool
	RequireInstallment  bool
	// OnlineOnly drops cash transactions.
	OnlineOnly bool

	DateField DateField

	// UsesHeadClassifier allows the classifier/head_id request
	// parameters; resolution is fail-closed in the fees service.
	UsesHeadClassifier bool
	// DefaultFirstCategory restricts to one fee category, falling back
	// to the school's first category (by name) when none is requested.
	// A school with no categories yields an empty report.
	DefaultFirstCategory bool
	// SingleStudent requires the student_id parameter.
	SingleStudent bool
}

var collected = []fees.PaymentStatus{fees.StatusPaid, fees.StatusPartiallyPaid}

var registry = map[string]Mode{
	"collection": {
		Name:            "collection",
		Title:           "Fee Collection Report",
		Shape:           ShapeLine,
		Statuses:        collected,
		WithConcessions: true,
		DateField:       DateFieldPaid,
	},
	"headwise-collection": {
		Name:                "headwise-collection",
		Title:               "Head-wise Collection Report",
		Shape:               ShapeHead,
		Statuses:            collected,
		WithConcessions:     true,
		ExcludeInstallments: true,
		DateField:           DateFieldPaid,
	},
	"complete-paid": {
		Name:               "complete-paid",
		Title:              "Completely Paid Fees Report",
		Shape:              ShapeLine,
		Statuses:           []fees.PaymentStatus{fees.StatusPaid},
		WithConcessions:    true,
		DateField:          DateFieldPaid,
		UsesHeadClassifier: true,
	},
	"headwise-dues": {
		Name:                 "headwise-dues",
		Title:                "Head-wise Dues Report",
		Shape:                ShapeStudent,
		Statuses:             fees.DuesStatuses,
		DuesOnly:             true,
		WithConcessions:      true,
		DateField:            DateFieldDue,
		DefaultFirstCategory: true,
	},
	"yearly-dues": {
		Name:            "yearly-dues",
		Title:           "Yearly Dues Report",
		Shape:           ShapeStudent,
		Statuses:        fees.DuesStatuses,
		DuesOnly:        true,
		WithConcessions: true,
		DateField:       DateFieldDue,
	},
	"year-wise-collection": {
		Name:               "year-wise-collection",
		Title:              "Year-wise Collection Report",
		Shape:              ShapeHead,
		Statuses:           collected,
		WithConcessions:    true,
		DateField:          DateFieldPaid,
		UsesHeadClassifier: true,
	},
	"year-wise-paid": {
		Name:            "year-wise-paid",
		Title:           "Year-wise Paid Fees Report",
		Shape:           ShapeLine,
		Statuses:        []fees.PaymentStatus{fees.StatusPaid},
		WithConcessions: true,
		DateField:       DateFieldPaid,
	},
	"group-wise": {
		Name:  "group-wise",
		Title: "Group-wise Fee Report",
		Shape: ShapeStudent,
		// Concessions are intentionally ignored here.
		WithConcessions: false,
		DateField:       DateFieldDue,
	},
	"consolidated": {
		Name:            "consolidated",
		Title:           "Consolidated Fee Report",
		Shape:           ShapeConsolidated,
		WithConcessions: true,
		DateField:       DateFieldDue,
	},
	"online-fee-transaction": {
		Name:            "online-fee-transaction",
		Title:           "Online Fee Transaction Report",
		Shape:           ShapeLine,
		Statuses:        collected,
		WithConcessions: true,
		OnlineOnly:      true,
		DateField:       DateFieldPaid,
	},
	"payment-history": {
		Name:            "payment-history",
		Title:           "Student Payment History",
		Shape:           ShapeLine,
		WithConcessions: true,
		DateField:       DateFieldPaid,
		SingleStudent:   true,
	},
}

// LookupMode resolves a registered report mode by name.
func LookupMode(name string) (Mode, bool) {
	m, ok := registry[name]
	return m, ok
}

// ModeNames lists registered modes in stable order.
func ModeNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
