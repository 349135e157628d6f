package students

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/campushub-erp/campushub/internal/shared"
)

type fakeRepo struct {
	students  map[string]*Student
	classes   map[string]*Class
	sequences map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		students:  make(map[string]*Student),
		classes:   make(map[string]*Class),
		sequences: make(map[string]int),
	}
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Student, int, error) {
	out := make([]Student, 0)
	for _, st := range f.students {
		if st.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		out = append(out, *st)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, schoolID, id string) (*Student, error) {
	st, ok := f.students[id]
	if !ok || st.SchoolID != schoolID {
		return nil, shared.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, st Student) (*Student, error) {
	for _, existing := range f.students {
		if existing.SchoolID == st.SchoolID && existing.AdmissionNumber == st.AdmissionNumber {
			return nil, shared.ErrDuplicate
		}
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.CreatedAt = time.Now()
	st.UpdatedAt = st.CreatedAt
	f.students[st.ID] = &st
	cp := st
	return &cp, nil
}

func (f *fakeRepo) Update(_ context.Context, st Student) error {
	stored, ok := f.students[st.ID]
	if !ok || stored.SchoolID != st.SchoolID {
		return shared.ErrNotFound
	}
	*stored = st
	return nil
}

func (f *fakeRepo) NextAdmissionSequence(_ context.Context, schoolID string, year int) (int, error) {
	key := fmt.Sprintf("%s:%d", schoolID, year)
	f.sequences[key]++
	return f.sequences[key], nil
}

func (f *fakeRepo) ListClasses(_ context.Context, schoolID string) ([]Class, error) {
	out := make([]Class, 0)
	for _, c := range f.classes {
		if c.SchoolID == schoolID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateClass(_ context.Context, c Class) (*Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	f.classes[c.ID] = &c
	cp := c
	return &cp, nil
}

func (f *fakeRepo) DeleteClass(_ context.Context, schoolID, id string) error {
	c, ok := f.classes[id]
	if !ok || c.SchoolID != schoolID {
		return shared.ErrNotFound
	}
	delete(f.classes, id)
	return nil
}

func testScope() shared.Scope {
	return shared.Scope{SchoolID: uuid.NewString(), UserID: uuid.NewString(), Role: shared.RoleAdmin}
}

func TestAdmitGeneratesSequentialAdmissionNumbers(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	scope := testScope()

	first, err := svc.Admit(context.Background(), scope, AdmitInput{FullName: "Asha Verma"})
	require.NoError(t, err)
	second, err := svc.Admit(context.Background(), scope, AdmitInput{FullName: "Bilal Khan"})
	require.NoError(t, err)

	require.Equal(t, "ADM-2026-0001", first.AdmissionNumber)
	require.Equal(t, "ADM-2026-0002", second.AdmissionNumber)
	require.Equal(t, StatusActive, first.Status)
	require.False(t, first.AdmissionDate.IsZero())
}

func TestAdmitSequencesAreIsolatedPerSchool(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	a, err := svc.Admit(context.Background(), testScope(), AdmitInput{FullName: "Asha Verma"})
	require.NoError(t, err)
	b, err := svc.Admit(context.Background(), testScope(), AdmitInput{FullName: "Bilal Khan"})
	require.NoError(t, err)

	require.Equal(t, "ADM-2026-0001", a.AdmissionNumber)
	require.Equal(t, "ADM-2026-0001", b.AdmissionNumber)
}

func TestAdmitValidatesInput(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Admit(context.Background(), testScope(), AdmitInput{FullName: "A"})
	require.Error(t, err)

	_, err = svc.Admit(context.Background(), testScope(), AdmitInput{FullName: "Asha Verma", Email: "not-an-email"})
	require.Error(t, err)
}

func TestUpdatePreservesAdmissionFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	admitted, err := svc.Admit(context.Background(), scope, AdmitInput{FullName: "Asha Verma"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), scope, admitted.ID, UpdateInput{
		FullName: "Asha V Verma",
		Phone:    "5550001111",
	})
	require.NoError(t, err)
	require.Equal(t, "Asha V Verma", updated.FullName)
	require.Equal(t, admitted.AdmissionNumber, updated.AdmissionNumber)
	require.Equal(t, admitted.AdmissionDate, updated.AdmissionDate)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	scope := testScope()

	admitted, err := svc.Admit(context.Background(), scope, AdmitInput{FullName: "Asha Verma"})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), scope, admitted.ID))

	got, err := svc.Get(context.Background(), scope, admitted.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, got.Status)
}

func TestStudentsInvisibleAcrossSchools(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	admitted, err := svc.Admit(context.Background(), testScope(), AdmitInput{FullName: "Asha Verma"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), testScope(), admitted.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
