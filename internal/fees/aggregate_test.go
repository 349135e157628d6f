package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(student, category string, assigned, paid string, concessions ...string) FeePayment {
	p := FeePayment{
		StudentID:      student,
		StudentName:    "Student " + student,
		CategoryName:   category,
		AssignedAmount: dec(assigned),
		PaidAmount:     dec(paid),
	}
	for _, c := range concessions {
		p.Concessions = append(p.Concessions, Concession{Amount: dec(c)})
	}
	return p
}

func TestLineDueSubtractsConcessions(t *testing.T) {
	p := line("s1", "Tuition", "1000", "250", "100", "50")
	require.True(t, LineDue(p).Equal(dec("600")))
}

func TestLineDueCanGoNegative(t *testing.T) {
	p := line("s1", "Tuition", "100", "80", "40")
	require.True(t, LineDue(p).Equal(dec("-20")))
}

func TestAggregateByStudentDuesOnly(t *testing.T) {
	payments := []FeePayment{
		line("s1", "Tuition", "1000", "400"),
		line("s1", "Transport", "200", "250"),    // negative due, skipped
		line("s2", "Tuition", "500", "500"),      // fully paid, skipped
		line("s3", "Tuition", "300", "0", "300"), // zeroed by concession, skipped
	}
	rollups := AggregateByStudent(payments, RollupOptions{WithConcessions: true, DuesOnly: true})

	require.Len(t, rollups, 1)
	require.Equal(t, "s1", rollups[0].StudentID)
	require.True(t, rollups[0].TotalDue.Equal(dec("600")))
	require.Equal(t, 1, rollups[0].LineCount)
}

func TestAggregateByStudentIgnoresConcessionsWhenDisabled(t *testing.T) {
	payments := []FeePayment{
		line("s1", "Tuition", "1000", "400", "600"),
	}
	rollups := AggregateByStudent(payments, RollupOptions{WithConcessions: false})

	require.Len(t, rollups, 1)
	require.True(t, rollups[0].TotalDue.Equal(dec("600")))
	require.True(t, rollups[0].TotalConcession.IsZero())
}

func TestAggregateByStudentPreservesFirstAppearanceOrder(t *testing.T) {
	payments := []FeePayment{
		line("s2", "Tuition", "100", "0"),
		line("s1", "Tuition", "100", "0"),
		line("s2", "Transport", "50", "0"),
	}
	rollups := AggregateByStudent(payments, RollupOptions{})

	require.Len(t, rollups, 2)
	require.Equal(t, "s2", rollups[0].StudentID)
	require.True(t, rollups[0].TotalAssigned.Equal(dec("150")))
	require.Equal(t, "s1", rollups[1].StudentID)
}

func TestAggregateByHeadUncategorizedBucket(t *testing.T) {
	payments := []FeePayment{
		line("s1", "Tuition", "1000", "700", "100"),
		line("s2", "", "200", "0"),
		line("s3", "Tuition", "500", "500"),
	}
	heads, overall := AggregateByHead(payments, true)

	require.Len(t, heads, 2)
	require.Equal(t, "Tuition", heads[0].Head)
	require.True(t, heads[0].TotalPayable.Equal(dec("1500")))
	require.True(t, heads[0].TotalDue.Equal(dec("200")))
	require.Equal(t, UncategorizedHead, heads[1].Head)
	require.True(t, heads[1].TotalDue.Equal(dec("200")))

	require.True(t, overall.TotalPayable.Equal(dec("1700")))
	require.True(t, overall.TotalPaid.Equal(dec("1200")))
	require.True(t, overall.TotalConcession.Equal(dec("100")))
	require.True(t, overall.TotalDue.Equal(dec("400")))
	require.Equal(t, 3, overall.LineCount)
}

func TestDeriveStatus(t *testing.T) {
	require.Equal(t, StatusPaid, DeriveStatus(dec("100"), dec("100")))
	require.Equal(t, StatusPaid, DeriveStatus(dec("100"), dec("150")))
	require.Equal(t, StatusPartiallyPaid, DeriveStatus(dec("100"), dec("1")))
	require.Equal(t, StatusPending, DeriveStatus(dec("100"), dec("0")))
}
