package fees

import (
	"github.com/shopspring/decimal"
)

// UncategorizedHead is the bucket for payments without a fee category.
const UncategorizedHead = "Uncategorized"

// TotalConcession sums the concessions recorded against a payment.
func TotalConcession(p FeePayment) decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.Concessions {
		total = total.Add(c.Amount)
	}
	return total
}

// LineDue is the outstanding amount of a single payment line:
// assigned minus paid minus the sum of concessions. May be negative
// when concessions or payments exceed the assignment.
func LineDue(p FeePayment) decimal.Decimal {
	return p.AssignedAmount.Sub(p.PaidAmount).Sub(TotalConcession(p))
}

// RollupOptions controls per-student aggregation behaviour.
type RollupOptions struct {
	// WithConcessions subtracts concessions when computing dues. When
	// false, due is assigned minus paid only.
	WithConcessions bool
	// DuesOnly skips lines whose due is not strictly positive and drops
	// students whose accumulated due is not strictly positive.
	DuesOnly bool
}

// StudentRollup is the per-student aggregate across matched payments.
type StudentRollup struct {
	StudentID       string
	StudentName     string
	FatherName      string
	RollNumber      string
	ClassName       string
	ClassDivision   string
	TotalAssigned   decimal.Decimal
	TotalPaid       decimal.Decimal
	TotalConcession decimal.Decimal
	TotalDue        decimal.Decimal
	LineCount       int
}

// AggregateByStudent folds payment lines into one row per student,
// preserving first-appearance order. Students with no matching lines
// never appear.
func AggregateByStudent(payments []FeePayment, opts RollupOptions) []StudentRollup {
	index := make(map[string]int, len(payments))
	rollups := make([]StudentRollup, 0, len(payments))

	for _, p := range payments {
		concession := decimal.Zero
		if opts.WithConcessions {
			concession = TotalConcession(p)
		}
		due := p.AssignedAmount.Sub(p.PaidAmount).Sub(concession)
		if opts.DuesOnly && !due.IsPositive() {
			continue
		}

		i, ok := index[p.StudentID]
		if !ok {
			index[p.StudentID] = len(rollups)
			i = len(rollups)
			rollups = append(rollups, StudentRollup{
				StudentID:     p.StudentID,
				StudentName:   p.StudentName,
				FatherName:    p.FatherName,
				RollNumber:    p.RollNumber,
				ClassName:     p.ClassName,
				ClassDivision: p.ClassDivision,
			})
		}
		r := &rollups[i]
		r.TotalAssigned = r.TotalAssigned.Add(p.AssignedAmount)
		r.TotalPaid = r.TotalPaid.Add(p.PaidAmount)
		r.TotalConcession = r.TotalConcession.Add(concession)
		r.TotalDue = r.TotalDue.Add(due)
		r.LineCount++
	}

	if !opts.DuesOnly {
		return rollups
	}
	filtered := rollups[:0]
	for _, r := range rollups {
		if r.TotalDue.IsPositive() {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// HeadRollup is the aggregate for one fee head.
type HeadRollup struct {
	Head            string
	TotalPayable    decimal.Decimal
	TotalPaid       decimal.Decimal
	TotalConcession decimal.Decimal
	TotalDue        decimal.Decimal
	LineCount       int
}

// AggregateByHead folds payment lines into one row per fee category
// name, in first-appearance order, plus an overall total row. Payments
// without a category land in the Uncategorized bucket.
func AggregateByHead(payments []FeePayment, withConcessions bool) ([]HeadRollup, HeadRollup) {
	index := make(map[string]int)
	rollups := make([]HeadRollup, 0)
	overall := HeadRollup{Head: "Total"}

	for _, p := range payments {
		head := p.CategoryName
		if head == "" {
			head = UncategorizedHead
		}
		concession := decimal.Zero
		if withConcessions {
			concession = TotalConcession(p)
		}
		due := p.AssignedAmount.Sub(p.PaidAmount).Sub(concession)

		i, ok := index[head]
		if !ok {
			index[head] = len(rollups)
			i = len(rollups)
			rollups = append(rollups, HeadRollup{Head: head})
		}
		r := &rollups[i]
		r.TotalPayable = r.TotalPayable.Add(p.AssignedAmount)
		r.TotalPaid = r.TotalPaid.Add(p.PaidAmount)
		r.TotalConcession = r.TotalConcession.Add(concession)
		r.TotalDue = r.TotalDue.Add(due)
		r.LineCount++

		overall.TotalPayable = overall.TotalPayable.Add(p.AssignedAmount)
		overall.TotalPaid = overall.TotalPaid.Add(p.PaidAmount)
		overall.TotalConcession = overall.TotalConcession.Add(concession)
		overall.TotalDue = overall.TotalDue.Add(due)
		overall.LineCount++
	}

	return rollups, overall
}
