package reports

import (
	"github.com/shopspring/decimal"

	"github.com/campushub-erp/campushub/internal/fees"
	"github.com/campushub-erp/campushub/internal/money"
)

func displayClass(name, division string) string {
	if division == "" {
		return name
	}
	return name + " " + division
}

func displayHead(p fees.FeePayment) string {
	switch {
	case p.CategoryName != "":
		return p.CategoryName
	case p.FeeTypeName != "":
		return p.FeeTypeName
	case p.InstallmentTitle != "":
		return p.InstallmentTitle
	default:
		return fees.UncategorizedHead
	}
}

func buildLineReport(rep *Report, mode Mode, payments []fees.FeePayment) {
	rep.Columns = []string{
		"Student", "Class", "Roll No", "Fee Head",
		"Assigned", "Paid", "Concession", "Due",
		"Status", "Payment Date", "Payment Mode",
	}
	rep.Rows = make([][]string, 0, len(payments))

	var assigned, paid, concession, due decimal.Decimal
	for _, p := range payments {
		lineConcession := decimal.Zero
		if mode.WithConcessions {
			lineConcession = fees.TotalConcession(p)
		}
		lineDue := p.AssignedAmount.Sub(p.PaidAmount).Sub(lineConcession)

		date := ""
		if !p.PaymentDate.IsZero() {
			date = p.PaymentDate.Format("2006-01-02")
		}
		rep.Rows = append(rep.Rows, []string{
			p.StudentName,
			displayClass(p.ClassName, p.ClassDivision),
			p.RollNumber,
			displayHead(p),
			money.Format(p.AssignedAmount),
			money.Format(p.PaidAmount),
			money.Format(lineConcession),
			money.Format(lineDue),
			string(p.Status),
			date,
			p.PaymentMode,
		})
		assigned = assigned.Add(p.AssignedAmount)
		paid = paid.Add(p.PaidAmount)
		concession = concession.Add(lineConcession)
		due = due.Add(lineDue)
	}
	rep.Totals = []string{
		"Total", "", "", "",
		money.Format(assigned), money.Format(paid), money.Format(concession), money.Format(due),
		"", "", "",
	}
}

func buildStudentReport(rep *Report, mode Mode, payments []fees.FeePayment) {
	rollups := fees.AggregateByStudent(payments, fees.RollupOptions{
		WithConcessions: mode.WithConcessions,
		DuesOnly:        mode.DuesOnly,
	})

	rep.Columns = []string{"Student", "Father Name", "Class", "Roll No", "Total Assigned", "Total Paid"}
	if mode.WithConcessions {
		rep.Columns = append(rep.Columns, "Total Concession")
	}
	rep.Columns = append(rep.Columns, "Total Due")

	var assigned, paid, concession, due decimal.Decimal
	rep.Rows = make([][]string, 0, len(rollups))
	for _, r := range rollups {
		row := []string{
			r.StudentName,
			r.FatherName,
			displayClass(r.ClassName, r.ClassDivision),
			r.RollNumber,
			money.Format(r.TotalAssigned),
			money.Format(r.TotalPaid),
		}
		if mode.WithConcessions {
			row = append(row, money.Format(r.TotalConcession))
		}
		row = append(row, money.Format(r.TotalDue))
		rep.Rows = append(rep.Rows, row)

		assigned = assigned.Add(r.TotalAssigned)
		paid = paid.Add(r.TotalPaid)
		concession = concession.Add(r.TotalConcession)
		due = due.Add(r.TotalDue)
	}

	totals := []string{"Total", "", "", "", money.Format(assigned), money.Format(paid)}
	if mode.WithConcessions {
		totals = append(totals, money.Format(concession))
	}
	rep.Totals = append(totals, money.Format(due))
}

func buildHeadReport(rep *Report, mode Mode, payments []fees.FeePayment) {
	heads, overall := fees.AggregateByHead(payments, mode.WithConcessions)

	rep.Columns = []string{"Fee Head", "Total Payable", "Total Paid", "Total Concession", "Total Due"}
	rep.Rows = make([][]string, 0, len(heads))
	for _, h := range heads {
		rep.Rows = append(rep.Rows, []string{
			h.Head,
			money.Format(h.TotalPayable),
			money.Format(h.TotalPaid),
			money.Format(h.TotalConcession),
			money.Format(h.TotalDue),
		})
	}
	rep.Totals = []string{
		"Total",
		money.Format(overall.TotalPayable),
		money.Format(overall.TotalPaid),
		money.Format(overall.TotalConcession),
		money.Format(overall.TotalDue),
	}
}

// buildConsolidatedReport renders one row per student with a due
// column per fee head. Head columns follow the school's category
// order; heads only seen on payment lines are appended after.
func buildConsolidatedReport(rep *Report, payments []fees.FeePayment, categories []fees.FeeCategory) {
	headOrder := make([]string, 0, len(categories)+1)
	headIndex := make(map[string]int, len(categories)+1)
	addHead := func(name string) int {
		if i, ok := headIndex[name]; ok {
			return i
		}
		headIndex[name] = len(headOrder)
		headOrder = append(headOrder, name)
		return headIndex[name]
	}
	for _, c := range categories {
		addHead(c.Name)
	}

	type studentRow struct {
		name  string
		class string
		dues  map[string]decimal.Decimal
		total decimal.Decimal
	}
	order := make([]string, 0)
	students := make(map[string]*studentRow)

	for _, p := range payments {
		head := displayHead(p)
		addHead(head)

		row, ok := students[p.StudentID]
		if !ok {
			row = &studentRow{
				name:  p.StudentName,
				class: displayClass(p.ClassName, p.ClassDivision),
				dues:  make(map[string]decimal.Decimal),
			}
			students[p.StudentID] = row
			order = append(order, p.StudentID)
		}
		due := fees.LineDue(p)
		row.dues[head] = row.dues[head].Add(due)
		row.total = row.total.Add(due)
	}

	rep.Columns = append([]string{"Student", "Class"}, headOrder...)
	rep.Columns = append(rep.Columns, "Total Due")

	rep.Rows = make([][]string, 0, len(order))
	headTotals := make([]decimal.Decimal, len(headOrder))
	var grand decimal.Decimal
	for _, id := range order {
		row := students[id]
		cells := []string{row.name, row.class}
		for i, head := range headOrder {
			d := row.dues[head]
			headTotals[i] = headTotals[i].Add(d)
			cells = append(cells, money.Format(d))
		}
		cells = append(cells, money.Format(row.total))
		grand = grand.Add(row.total)
		rep.Rows = append(rep.Rows, cells)
	}

	rep.Totals = []string{"Total", ""}
	for _, t := range headTotals {
		rep.Totals = append(rep.Totals, money.Format(t))
	}
	rep.Totals = append(rep.Totals, money.Format(grand))
}
