package leave

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/campushub-erp/campushub/internal/shared"
)

type fakeRepo struct {
	applications map[string]*Application
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{applications: make(map[string]*Application)}
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Application, error) {
	out := make([]Application, 0)
	for _, a := range f.applications {
		if a.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.ApplicantID != "" && a.ApplicantID != filter.ApplicantID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, schoolID, id string) (*Application, error) {
	a, ok := f.applications[id]
	if !ok || a.SchoolID != schoolID {
		return nil, shared.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, a Application) (*Application, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.applications[a.ID] = &a
	cp := a
	return &cp, nil
}

func (f *fakeRepo) UpdateReview(_ context.Context, a Application) error {
	stored, ok := f.applications[a.ID]
	if !ok || stored.SchoolID != a.SchoolID {
		return shared.ErrNotFound
	}
	stored.Status = a.Status
	stored.ReviewedBy = a.ReviewedBy
	stored.ReviewNote = a.ReviewNote
	stored.ReviewedAt = a.ReviewedAt
	return nil
}

func testScope() shared.Scope {
	return shared.Scope{SchoolID: uuid.NewString(), UserID: uuid.NewString(), Role: shared.RoleAdmin}
}

func day(d int) time.Time {
	return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestApplyValidatesDateOrder(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Apply(context.Background(), testScope(), ApplyInput{
		ApplicantID: uuid.NewString(),
		LeaveType:   TypeCasual,
		FromDate:    day(10),
		ToDate:      day(5),
		Reason:      "family event",
	})
	require.Error(t, err)
}

func TestApplyCreatesPending(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	a, err := svc.Apply(context.Background(), testScope(), ApplyInput{
		ApplicantID: uuid.NewString(),
		LeaveType:   TypeSick,
		FromDate:    day(1),
		ToDate:      day(3),
		Reason:      "fever",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, a.Status)
	require.Equal(t, 3, a.Days())
}

func TestApproveRecordsReviewer(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return day(4) }
	scope := testScope()

	a, err := svc.Apply(context.Background(), scope, ApplyInput{
		ApplicantID: uuid.NewString(),
		LeaveType:   TypeCasual,
		FromDate:    day(10),
		ToDate:      day(11),
		Reason:      "family event",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), scope, a.ID, "ok")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, scope.UserID, approved.ReviewedBy)
	require.Equal(t, day(4), approved.ReviewedAt)

	// A second transition must fail.
	_, err = svc.Reject(context.Background(), scope, a.ID, "changed my mind")
	require.ErrorIs(t, err, ErrNotReviewable)
}

func TestCancelOnlyByApplicant(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()
	applicant := uuid.NewString()

	a, err := svc.Apply(context.Background(), scope, ApplyInput{
		ApplicantID: applicant,
		LeaveType:   TypeEarned,
		FromDate:    day(20),
		ToDate:      day(22),
		Reason:      "vacation",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), scope, a.ID)
	require.Error(t, err)

	applicantScope := shared.Scope{SchoolID: scope.SchoolID, UserID: applicant, Role: shared.RoleTeacher}
	cancelled, err := svc.Cancel(context.Background(), applicantScope, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
}
