package fees

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/campushub-erp/campushub/internal/shared"
)

type fakeRepo struct {
	payments     map[string]*FeePayment
	feeTypes     []FeeType
	installments []Installment
	methods      map[string]*PaymentMethod
	modeCounts   map[string]int64
	concessions  []Concession
	listed       []Filter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments:   make(map[string]*FeePayment),
		methods:    make(map[string]*PaymentMethod),
		modeCounts: make(map[string]int64),
	}
}

func (f *fakeRepo) ListPayments(_ context.Context, filter Filter) ([]FeePayment, error) {
	f.listed = append(f.listed, filter)
	if filter.MatchNone {
		return []FeePayment{}, nil
	}
	out := make([]FeePayment, 0)
	for _, p := range f.payments {
		if p.SchoolID != filter.SchoolID {
			continue
		}
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) GetPayment(_ context.Context, schoolID, id string) (*FeePayment, error) {
	p, ok := f.payments[id]
	if !ok || p.SchoolID != schoolID {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) CreatePayment(_ context.Context, p FeePayment) (*FeePayment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.payments[p.ID] = &p
	cp := p
	return &cp, nil
}

func (f *fakeRepo) UpdatePaymentCollection(_ context.Context, p FeePayment) error {
	stored, ok := f.payments[p.ID]
	if !ok || stored.SchoolID != p.SchoolID {
		return shared.ErrNotFound
	}
	stored.PaidAmount = p.PaidAmount
	stored.Status = p.Status
	stored.PaymentDate = p.PaymentDate
	stored.PaymentMode = p.PaymentMode
	stored.Notes = p.Notes
	return nil
}

func (f *fakeRepo) DeletePayment(_ context.Context, schoolID, id string) error {
	p, ok := f.payments[id]
	if !ok || p.SchoolID != schoolID {
		return shared.ErrNotFound
	}
	delete(f.payments, id)
	return nil
}

func (f *fakeRepo) MarkOverdue(_ context.Context, schoolID string, asOf time.Time) (int64, error) {
	var n int64
	for _, p := range f.payments {
		if p.SchoolID == schoolID && p.Status == StatusPending && !p.DueDate.IsZero() && p.DueDate.Before(asOf) {
			p.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ListSchoolIDs(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, p := range f.payments {
		if !seen[p.SchoolID] {
			seen[p.SchoolID] = true
			ids = append(ids, p.SchoolID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) AddConcession(_ context.Context, c Concession) (*Concession, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	f.concessions = append(f.concessions, c)
	return &c, nil
}

func (f *fakeRepo) ListCategories(context.Context, string) ([]FeeCategory, error) { return nil, nil }
func (f *fakeRepo) CreateCategory(_ context.Context, c FeeCategory) (*FeeCategory, error) {
	c.ID = uuid.NewString()
	return &c, nil
}
func (f *fakeRepo) UpdateCategory(context.Context, FeeCategory) error    { return nil }
func (f *fakeRepo) DeleteCategory(context.Context, string, string) error { return nil }

func (f *fakeRepo) ListFeeTypes(_ context.Context, _ string, kind FeeTypeKind) ([]FeeType, error) {
	out := make([]FeeType, 0)
	for _, t := range f.feeTypes {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}
func (f *fakeRepo) CreateFeeType(_ context.Context, t FeeType) (*FeeType, error) {
	t.ID = uuid.NewString()
	f.feeTypes = append(f.feeTypes, t)
	return &t, nil
}
func (f *fakeRepo) DeleteFeeType(context.Context, string, string) error { return nil }

func (f *fakeRepo) ListInstallments(context.Context, string) ([]Installment, error) {
	return f.installments, nil
}
func (f *fakeRepo) CreateInstallment(_ context.Context, ins Installment) (*Installment, error) {
	ins.ID = uuid.NewString()
	f.installments = append(f.installments, ins)
	return &ins, nil
}

func (f *fakeRepo) ListFeeGroups(context.Context, string) ([]FeeGroup, error) { return nil, nil }
func (f *fakeRepo) CreateFeeGroup(_ context.Context, g FeeGroup) (*FeeGroup, error) {
	g.ID = uuid.NewString()
	return &g, nil
}

func (f *fakeRepo) ListPaymentMethods(context.Context, string) ([]PaymentMethod, error) {
	out := make([]PaymentMethod, 0, len(f.methods))
	for _, m := range f.methods {
		out = append(out, *m)
	}
	return out, nil
}
func (f *fakeRepo) GetPaymentMethod(_ context.Context, schoolID, id string) (*PaymentMethod, error) {
	m, ok := f.methods[id]
	if !ok || m.SchoolID != schoolID {
		return nil, shared.ErrNotFound
	}
	cp := *m
	return &cp, nil
}
func (f *fakeRepo) CreatePaymentMethod(_ context.Context, m PaymentMethod) (*PaymentMethod, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	f.methods[m.ID] = &m
	cp := m
	return &cp, nil
}
func (f *fakeRepo) UpdatePaymentMethod(context.Context, PaymentMethod) error { return nil }
func (f *fakeRepo) DeletePaymentMethod(_ context.Context, schoolID, id string) error {
	m, ok := f.methods[id]
	if !ok || m.SchoolID != schoolID {
		return shared.ErrNotFound
	}
	delete(f.methods, id)
	return nil
}
func (f *fakeRepo) CountPaymentsByMode(_ context.Context, _ string, mode string) (int64, error) {
	return f.modeCounts[mode], nil
}

func testScope() shared.Scope {
	return shared.Scope{SchoolID: uuid.NewString(), UserID: uuid.NewString(), Role: shared.RoleAdmin}
}

func TestAssignFeeRequiresScope(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.AssignFee(context.Background(), shared.Scope{}, AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("100"),
	})
	require.ErrorIs(t, err, shared.ErrSchoolScopeMissing)
}

func TestAssignFeeRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.AssignFee(context.Background(), testScope(), AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("0"),
	})
	require.Error(t, err)
}

func TestRecordPaymentClampsOverpayment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	assigned, err := svc.AssignFee(context.Background(), scope, AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("100"),
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), scope, RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("40"),
		PaymentMode:  "Cash",
	})
	require.NoError(t, err)

	updated, err := svc.RecordPayment(context.Background(), scope, RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("75"),
		PaymentMode:  "UPI",
		Note:         "final settlement",
	})
	require.NoError(t, err)

	require.True(t, updated.PaidAmount.Equal(dec("100")), "paid amount must clamp at assigned")
	require.Equal(t, StatusPaid, updated.Status)
	require.False(t, updated.PaymentDate.IsZero())
	require.Contains(t, updated.Notes, "Received 75.00 via UPI")
	require.Contains(t, updated.Notes, "final settlement")
	require.Contains(t, updated.Notes, "Received 40.00 via Cash")
}

func TestRecordPaymentPartial(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	assigned, err := svc.AssignFee(context.Background(), scope, AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("500"),
	})
	require.NoError(t, err)

	updated, err := svc.RecordPayment(context.Background(), scope, RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("200"),
		PaymentMode:  "Cash",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, updated.Status)
	require.True(t, updated.PaidAmount.Equal(dec("200")))
}

func TestRecordPaymentRejectsSettledLine(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	assigned, err := svc.AssignFee(context.Background(), scope, AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("100"),
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), scope, RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("100"),
		PaymentMode:  "Cash",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), scope, RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("10"),
		PaymentMode:  "Cash",
	})
	require.Error(t, err)
}

func TestRecordPaymentOtherSchoolInvisible(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	assigned, err := svc.AssignFee(context.Background(), testScope(), AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("100"),
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), testScope(), RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("10"),
		PaymentMode:  "Cash",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApplyHeadFilterFailClosed(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	regular := FeeType{ID: uuid.NewString(), Kind: FeeTypeRegular, Name: "Annual"}
	extra := FeeType{ID: uuid.NewString(), Kind: FeeTypeExtraCharge, Name: "Lab"}
	repo.feeTypes = []FeeType{regular, extra}

	t.Run("specific matching head narrows", func(t *testing.T) {
		var f Filter
		require.NoError(t, svc.ApplyHeadFilter(context.Background(), scope, &f, ClassifierFeeType, regular.ID))
		require.Equal(t, []string{regular.ID}, f.FeeTypeIDs)
		require.False(t, f.MatchNone)
	})

	t.Run("head of the wrong kind matches nothing", func(t *testing.T) {
		var f Filter
		require.NoError(t, svc.ApplyHeadFilter(context.Background(), scope, &f, ClassifierFeeType, extra.ID))
		require.True(t, f.MatchNone)
	})

	t.Run("no heads of kind matches nothing", func(t *testing.T) {
		repo.feeTypes = []FeeType{regular}
		var f Filter
		require.NoError(t, svc.ApplyHeadFilter(context.Background(), scope, &f, ClassifierSpecialType, ""))
		require.True(t, f.MatchNone)
	})

	t.Run("all heads of kind without specific id", func(t *testing.T) {
		repo.feeTypes = []FeeType{regular, extra}
		var f Filter
		require.NoError(t, svc.ApplyHeadFilter(context.Background(), scope, &f, ClassifierSpecialType, ""))
		require.Equal(t, []string{extra.ID}, f.FeeTypeIDs)
	})
}

func TestApplyHeadFilterInstallment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()
	ins := Installment{ID: uuid.NewString(), Title: "Term 1"}
	repo.installments = []Installment{ins}

	var f Filter
	require.NoError(t, svc.ApplyHeadFilter(context.Background(), scope, &f, ClassifierInstallment, ins.ID))
	require.True(t, f.RequireInstallment)
	require.Equal(t, ins.ID, f.InstallmentID)

	var g Filter
	require.NoError(t, svc.ApplyHeadFilter(context.Background(), scope, &g, ClassifierInstallment, uuid.NewString()))
	require.True(t, g.MatchNone)
}

func TestDeletePaymentMethodGuard(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	method, err := svc.CreatePaymentMethod(context.Background(), scope, PaymentMethodInput{Name: "Cash"})
	require.NoError(t, err)

	repo.modeCounts["Cash"] = 3
	err = svc.DeletePaymentMethod(context.Background(), scope, method.ID)
	require.ErrorIs(t, err, ErrPaymentMethodInUse)

	repo.modeCounts["Cash"] = 0
	require.NoError(t, svc.DeletePaymentMethod(context.Background(), scope, method.ID))
}

func TestAddConcessionValidatesOwnership(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	assigned, err := svc.AssignFee(context.Background(), scope, AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("100"),
	})
	require.NoError(t, err)

	_, err = svc.AddConcession(context.Background(), testScope(), ConcessionInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("10"),
		Reason:       "sibling discount",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	created, err := svc.AddConcession(context.Background(), scope, ConcessionInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("10"),
		Reason:       "sibling discount",
	})
	require.NoError(t, err)
	require.Equal(t, assigned.ID, created.FeePaymentID)
}

type countingNotifier struct {
	bumps int
}

func (n *countingNotifier) Bump(context.Context) error {
	n.bumps++
	return nil
}

func TestMutationsNotifyChange(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	notifier := &countingNotifier{}
	svc.SetNotifier(notifier)
	scope := testScope()

	assigned, err := svc.AssignFee(context.Background(), scope, AssignFeeInput{
		StudentID: uuid.NewString(),
		Amount:    dec("100"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, notifier.bumps)

	_, err = svc.RecordPayment(context.Background(), scope, RecordPaymentInput{
		FeePaymentID: assigned.ID,
		Amount:       dec("40"),
		PaymentMode:  "Cash",
	})
	require.NoError(t, err)
	require.Equal(t, 2, notifier.bumps)

	_, err = svc.ListPayments(context.Background(), scope, Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, notifier.bumps, "reads must not invalidate")
}
