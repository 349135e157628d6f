package reports

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRequestReadsFilterParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/collection"+
		"?class_id=c1&student_id=s1&classifier=installment&head_id=h1"+
		"&fee_category_id=cat1&fee_group_id=g1&academic_year_id=y1"+
		"&payment_mode=UPI&search=verma"+
		"&from=2026-04-01&to=2026-04-30&date=2026-04-15", nil)

	req := parseRequest(r)
	require.Equal(t, "c1", req.ClassID)
	require.Equal(t, "s1", req.StudentID)
	require.Equal(t, "installment", req.Classifier)
	require.Equal(t, "h1", req.HeadID)
	require.Equal(t, "cat1", req.FeeCategoryID)
	require.Equal(t, "g1", req.FeeGroupID)
	require.Equal(t, "y1", req.AcademicYearID)
	require.Equal(t, "UPI", req.PaymentMode)
	require.Equal(t, "verma", req.Search)
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), req.From)
	require.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), req.To)
	require.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), req.Date)
}
