package teachers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub-erp/campushub/internal/shared"
)

type fakeRepo struct {
	teachers map[string]*Teacher
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{teachers: make(map[string]*Teacher)}
}

func (f *fakeRepo) List(_ context.Context, schoolID string) ([]Teacher, error) {
	out := make([]Teacher, 0)
	for _, t := range f.teachers {
		if t.SchoolID == schoolID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, schoolID, id string) (*Teacher, error) {
	t, ok := f.teachers[id]
	if !ok || t.SchoolID != schoolID {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, t Teacher) (*Teacher, error) {
	for _, existing := range f.teachers {
		if existing.SchoolID == t.SchoolID && existing.Email == t.Email {
			return nil, shared.ErrDuplicate
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.teachers[t.ID] = &t
	cp := t
	return &cp, nil
}

func (f *fakeRepo) Update(_ context.Context, t Teacher) error {
	stored, ok := f.teachers[t.ID]
	if !ok || stored.SchoolID != t.SchoolID {
		return shared.ErrNotFound
	}
	*stored = t
	return nil
}

type fakeStore struct {
	objects map[string][]byte
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.objects[key] = data
	return key, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

func testScope() shared.Scope {
	return shared.Scope{SchoolID: uuid.NewString(), UserID: uuid.NewString(), Role: shared.RoleAdmin}
}

func TestCreateHashesInitialPassword(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	scope := testScope()

	result, err := svc.Create(context.Background(), scope, CreateInput{
		FullName: "Meera Joshi",
		Email:    "Meera.Joshi@Example.com",
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.InitialPassword)
	require.NotEqual(t, result.InitialPassword, result.Teacher.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(result.Teacher.PasswordHash), []byte(result.InitialPassword)))
	require.Equal(t, "meera.joshi@example.com", result.Teacher.Email)
	require.Equal(t, StatusActive, result.Teacher.Status)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	scope := testScope()

	_, err := svc.Create(context.Background(), scope, CreateInput{FullName: "Meera Joshi", Email: "m@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), scope, CreateInput{FullName: "Another Person", Email: "M@Example.com"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestResetPasswordInvalidatesOldOne(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	scope := testScope()

	result, err := svc.Create(context.Background(), scope, CreateInput{FullName: "Meera Joshi", Email: "m@example.com"})
	require.NoError(t, err)
	old := result.InitialPassword

	fresh, err := svc.ResetPassword(context.Background(), scope, result.Teacher.ID)
	require.NoError(t, err)
	require.NotEqual(t, old, fresh)

	require.Error(t, svc.VerifyPassword(context.Background(), scope, result.Teacher.ID, old))
	require.NoError(t, svc.VerifyPassword(context.Background(), scope, result.Teacher.ID, fresh))
}

func TestUploadPhotoReplacesPrevious(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil)
	scope := testScope()

	result, err := svc.Create(context.Background(), scope, CreateInput{FullName: "Meera Joshi", Email: "m@example.com"})
	require.NoError(t, err)

	first, err := svc.UploadPhoto(context.Background(), scope, result.Teacher.ID, "one.jpg", []byte("aaa"), "image/jpeg")
	require.NoError(t, err)
	require.NotEmpty(t, first.PhotoKey)
	require.Contains(t, first.PhotoURL, first.PhotoKey)

	second, err := svc.UploadPhoto(context.Background(), scope, result.Teacher.ID, "two.jpg", []byte("bbb"), "image/jpeg")
	require.NoError(t, err)
	require.NotEqual(t, first.PhotoKey, second.PhotoKey)
	require.Contains(t, store.removed, first.PhotoKey)
	require.Len(t, store.objects, 1)
}

func TestDeactivate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	scope := testScope()

	result, err := svc.Create(context.Background(), scope, CreateInput{FullName: "Meera Joshi", Email: "m@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), scope, result.Teacher.ID))

	got, err := svc.Get(context.Background(), scope, result.Teacher.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, got.Status)
}
