package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/campushub-erp/campushub/internal/fees"
	"github.com/campushub-erp/campushub/internal/shared"
)

type fakeReader struct {
	payments   []fees.FeePayment
	categories []fees.FeeCategory

	lastFilter     fees.Filter
	lastClassifier fees.HeadClassifier
	lastHeadID     string
	matchNone      bool
}

func (f *fakeReader) ListPayments(_ context.Context, _ shared.Scope, filter fees.Filter) ([]fees.FeePayment, error) {
	f.lastFilter = filter
	if filter.MatchNone {
		return []fees.FeePayment{}, nil
	}
	if filter.FeeCategoryID == "" {
		return f.payments, nil
	}
	matched := make([]fees.FeePayment, 0)
	for _, p := range f.payments {
		if p.FeeCategoryID == filter.FeeCategoryID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (f *fakeReader) ApplyHeadFilter(_ context.Context, _ shared.Scope, filter *fees.Filter, classifier fees.HeadClassifier, headID string) error {
	f.lastClassifier = classifier
	f.lastHeadID = headID
	filter.MatchNone = f.matchNone
	return nil
}

func (f *fakeReader) ListCategories(context.Context, shared.Scope) ([]fees.FeeCategory, error) {
	return f.categories, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func payment(student, name, category string, assigned, paid string, concessions ...string) fees.FeePayment {
	p := fees.FeePayment{
		StudentID:      student,
		StudentName:    name,
		CategoryName:   category,
		AssignedAmount: dec(assigned),
		PaidAmount:     dec(paid),
		Status:         fees.StatusPartiallyPaid,
		PaymentDate:    time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		PaymentMode:    "UPI",
	}
	for _, c := range concessions {
		p.Concessions = append(p.Concessions, fees.Concession{Amount: dec(c)})
	}
	return p
}

func reportScope() shared.Scope {
	return shared.Scope{SchoolID: "school-1", UserID: "user-1", Role: shared.RoleAdmin}
}

func newTestService(reader *fakeReader) *Service {
	return NewService(reader, nil, nil, nil)
}

func TestRunRequiresScope(t *testing.T) {
	svc := newTestService(&fakeReader{})
	_, err := svc.Run(context.Background(), shared.Scope{}, Request{Mode: "collection"})
	require.ErrorIs(t, err, shared.ErrSchoolScopeMissing)
}

func TestRunUnknownMode(t *testing.T) {
	svc := newTestService(&fakeReader{})
	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "nope"})
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestPaymentHistoryRequiresStudent(t *testing.T) {
	svc := newTestService(&fakeReader{})
	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "payment-history"})
	require.Error(t, err)
}

func TestCollectionReportRowsAndTotals(t *testing.T) {
	reader := &fakeReader{payments: []fees.FeePayment{
		payment("s1", "Asha Verma", "Tuition", "1000", "400", "100"),
		payment("s2", "Bilal Khan", "Transport", "200", "200"),
	}}
	svc := newTestService(reader)

	rep, err := svc.Run(context.Background(), reportScope(), Request{Mode: "collection"})
	require.NoError(t, err)

	require.Len(t, rep.Rows, 2)
	require.Equal(t, "Asha Verma", rep.Rows[0][0])
	require.Equal(t, "1000.00", rep.Rows[0][4])
	require.Equal(t, "400.00", rep.Rows[0][5])
	require.Equal(t, "100.00", rep.Rows[0][6])
	require.Equal(t, "500.00", rep.Rows[0][7])
	require.Equal(t, "Total", rep.Totals[0])
	require.Equal(t, "1200.00", rep.Totals[4])
	require.Equal(t, "600.00", rep.Totals[5])
}

func TestHeadwiseCollectionExcludesInstallments(t *testing.T) {
	reader := &fakeReader{}
	svc := newTestService(reader)

	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "headwise-collection"})
	require.NoError(t, err)
	require.True(t, reader.lastFilter.ExcludeInstallments)
}

func TestGroupWiseIgnoresConcessions(t *testing.T) {
	reader := &fakeReader{payments: []fees.FeePayment{
		payment("s1", "Asha Verma", "Tuition", "1000", "400", "600"),
	}}
	svc := newTestService(reader)

	rep, err := svc.Run(context.Background(), reportScope(), Request{Mode: "group-wise"})
	require.NoError(t, err)

	require.NotContains(t, rep.Columns, "Total Concession")
	require.Len(t, rep.Rows, 1)
	// Due stays 600.00 because the concession is deliberately not applied.
	require.Equal(t, "600.00", rep.Rows[0][len(rep.Rows[0])-1])
}

func TestHeadwiseDuesDefaultsToFirstCategory(t *testing.T) {
	tuition := payment("s1", "Asha Verma", "Tuition", "1000", "0")
	tuition.FeeCategoryID = "cat-tuition"
	transport := payment("s2", "Bilal Khan", "Transport", "500", "0")
	transport.FeeCategoryID = "cat-transport"
	reader := &fakeReader{
		payments: []fees.FeePayment{tuition, transport},
		categories: []fees.FeeCategory{
			{ID: "cat-tuition", Name: "Tuition"},
			{ID: "cat-transport", Name: "Transport"},
		},
	}
	svc := newTestService(reader)

	// No category requested: the first category by name (Transport) is
	// used, so only its 500.00 due appears.
	rep, err := svc.Run(context.Background(), reportScope(), Request{Mode: "headwise-dues"})
	require.NoError(t, err)
	require.Equal(t, "cat-transport", reader.lastFilter.FeeCategoryID)
	require.Len(t, rep.Rows, 1)
	require.Equal(t, "Bilal Khan", rep.Rows[0][0])
	require.Equal(t, "500.00", rep.Rows[0][len(rep.Rows[0])-1])

	// An explicit category wins over the default.
	rep, err = svc.Run(context.Background(), reportScope(), Request{Mode: "headwise-dues", FeeCategoryID: "cat-tuition"})
	require.NoError(t, err)
	require.Equal(t, "cat-tuition", reader.lastFilter.FeeCategoryID)
	require.Len(t, rep.Rows, 1)
	require.Equal(t, "1000.00", rep.Rows[0][len(rep.Rows[0])-1])
}

func TestHeadwiseDuesNoCategoriesIsEmptySuccess(t *testing.T) {
	reader := &fakeReader{
		payments: []fees.FeePayment{payment("s1", "Asha Verma", "Tuition", "1000", "0")},
	}
	svc := newTestService(reader)

	rep, err := svc.Run(context.Background(), reportScope(), Request{Mode: "headwise-dues"})
	require.NoError(t, err)
	require.Empty(t, rep.Rows)
	require.True(t, reader.lastFilter.MatchNone)
}

func TestCompletePaidAppliesHeadClassifier(t *testing.T) {
	reader := &fakeReader{}
	svc := newTestService(reader)

	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "complete-paid"})
	require.NoError(t, err)
	require.Equal(t, fees.ClassifierFeeType, reader.lastClassifier)

	_, err = svc.Run(context.Background(), reportScope(), Request{
		Mode:       "complete-paid",
		Classifier: string(fees.ClassifierInstallment),
		HeadID:     "ins-1",
	})
	require.NoError(t, err)
	require.Equal(t, fees.ClassifierInstallment, reader.lastClassifier)
	require.Equal(t, "ins-1", reader.lastHeadID)

	_, err = svc.Run(context.Background(), reportScope(), Request{Mode: "year-wise-collection"})
	require.NoError(t, err)
	require.Equal(t, fees.ClassifierFeeType, reader.lastClassifier)
}

func TestCompletePaidFailClosedYieldsEmptyReport(t *testing.T) {
	reader := &fakeReader{
		payments:  []fees.FeePayment{payment("s1", "Asha Verma", "Tuition", "1000", "1000")},
		matchNone: true,
	}
	svc := newTestService(reader)

	rep, err := svc.Run(context.Background(), reportScope(), Request{
		Mode:       "complete-paid",
		Classifier: string(fees.ClassifierFeeType),
		HeadID:     "mismatched-head",
	})
	require.NoError(t, err)
	require.Empty(t, rep.Rows)
}

func TestSearchReachesPaymentFilter(t *testing.T) {
	reader := &fakeReader{}
	svc := newTestService(reader)

	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "collection", Search: "verma"})
	require.NoError(t, err)
	require.Equal(t, "verma", reader.lastFilter.Search)
}

func TestOnlineTransactionsExcludeCash(t *testing.T) {
	reader := &fakeReader{}
	svc := newTestService(reader)

	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "online-fee-transaction"})
	require.NoError(t, err)
	require.Equal(t, "cash", reader.lastFilter.ExcludePaymentMode)
	require.Empty(t, reader.lastFilter.PaymentMode)

	_, err = svc.Run(context.Background(), reportScope(), Request{Mode: "online-fee-transaction", PaymentMode: "UPI"})
	require.NoError(t, err)
	require.Equal(t, "UPI", reader.lastFilter.PaymentMode)

	// Mode narrowing is an online-report parameter only.
	_, err = svc.Run(context.Background(), reportScope(), Request{Mode: "collection", PaymentMode: "UPI"})
	require.NoError(t, err)
	require.Empty(t, reader.lastFilter.PaymentMode)
}

func TestLineReportSummaryUsesCurrencySymbol(t *testing.T) {
	reader := &fakeReader{payments: []fees.FeePayment{
		payment("s1", "Asha Verma", "Tuition", "1000", "400", "100"),
		payment("s2", "Bilal Khan", "Transport", "200", "200"),
	}}
	svc := newTestService(reader)
	svc.SetCurrencySymbol("Rs.")

	rep, err := svc.Run(context.Background(), reportScope(), Request{Mode: "collection"})
	require.NoError(t, err)
	require.Equal(t, "Rs.600.00", rep.Summary["total_collection"])
	require.Equal(t, "Rs.100.00", rep.Summary["total_concession"])
}

func TestConsolidatedReportColumnsPerHead(t *testing.T) {
	reader := &fakeReader{
		payments: []fees.FeePayment{
			payment("s1", "Asha Verma", "Tuition", "1000", "400"),
			payment("s1", "Asha Verma", "", "100", "0"),
			payment("s2", "Bilal Khan", "Transport", "300", "100"),
		},
		categories: []fees.FeeCategory{
			{ID: "c1", Name: "Tuition"},
			{ID: "c2", Name: "Transport"},
		},
	}
	svc := newTestService(reader)

	rep, err := svc.Run(context.Background(), reportScope(), Request{Mode: "consolidated"})
	require.NoError(t, err)

	require.Equal(t, []string{"Student", "Class", "Tuition", "Transport", "Uncategorized", "Total Due"}, rep.Columns)
	require.Len(t, rep.Rows, 2)
	require.Equal(t, "600.00", rep.Rows[0][2])
	require.Equal(t, "100.00", rep.Rows[0][4])
	require.Equal(t, "700.00", rep.Rows[0][5])
	require.Equal(t, "200.00", rep.Rows[1][3])
	require.Equal(t, "900.00", rep.Totals[len(rep.Totals)-1])
}

func TestDateRangeRoutedByMode(t *testing.T) {
	reader := &fakeReader{}
	svc := newTestService(reader)
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	_, err := svc.Run(context.Background(), reportScope(), Request{Mode: "collection", From: from, To: to})
	require.NoError(t, err)
	require.Equal(t, from, reader.lastFilter.PaidFrom)
	require.Equal(t, to, reader.lastFilter.PaidTo)
	require.True(t, reader.lastFilter.DueFrom.IsZero())

	_, err = svc.Run(context.Background(), reportScope(), Request{Mode: "yearly-dues", From: from, To: to})
	require.NoError(t, err)
	require.Equal(t, from, reader.lastFilter.DueFrom)
	require.Equal(t, to, reader.lastFilter.DueTo)
	require.True(t, reader.lastFilter.PaidFrom.IsZero())
}
