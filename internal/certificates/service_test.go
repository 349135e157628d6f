package certificates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/campushub-erp/campushub/internal/shared"
)

type fakeRepo struct {
	templates map[string]*Template
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{templates: make(map[string]*Template)}
}

func key(schoolID, templateType string) string {
	return schoolID + "/" + templateType
}

func (f *fakeRepo) List(_ context.Context, schoolID string) ([]Template, error) {
	out := make([]Template, 0)
	for _, t := range f.templates {
		if t.SchoolID == schoolID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByType(_ context.Context, schoolID, templateType string) (*Template, error) {
	t, ok := f.templates[key(schoolID, templateType)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) Upsert(_ context.Context, t Template) (*Template, error) {
	k := key(t.SchoolID, t.TemplateType)
	if existing, ok := f.templates[k]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		t.ID = uuid.NewString()
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = time.Now()
	f.templates[k] = &t
	cp := t
	return &cp, nil
}

func (f *fakeRepo) Delete(_ context.Context, schoolID, templateType string) error {
	k := key(schoolID, templateType)
	if _, ok := f.templates[k]; !ok {
		return shared.ErrNotFound
	}
	delete(f.templates, k)
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
	return "https://files.example.com/" + key, nil
}

func adminScope() shared.Scope {
	return shared.Scope{SchoolID: uuid.NewString(), UserID: uuid.NewString(), Role: shared.RoleAdmin}
}

func TestSaveReplacesLayoutForSameType(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	scope := adminScope()

	first, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
		Elements: []Element{
			{ID: "el_title", Content: "Certificate of Completion", X: 226, Y: 130, Width: 500, Height: 50, FontSize: 36, FontFamily: "serif", Align: "center"},
		},
	})
	require.NoError(t, err)

	second, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion v2",
		TemplateType: "student_course_completion",
		Elements: []Element{
			{ID: "el_title", Content: "Certificate of Completion", X: 226, Y: 110, Width: 500, Height: 50},
			{ID: "el_student", Content: "{{student_name}}", X: 176, Y: 270, Width: 600, Height: 60},
		},
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, second.Elements, 2)

	all, err := svc.List(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Course completion v2", all[0].Name)
}

func TestSaveRejectsEmptyElementContent(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Save(context.Background(), adminScope(), SaveInput{
		Name:         "Broken",
		TemplateType: "student_course_completion",
		Elements:     []Element{{ID: "el_blank", Content: "   "}},
	})
	require.Error(t, err)
}

func TestBackgroundSurvivesLayoutResave(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil)
	scope := adminScope()

	_, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
	})
	require.NoError(t, err)

	withBackground, err := svc.UploadBackground(context.Background(), scope, "student_course_completion",
		"border.png", []byte("png bytes"), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, withBackground.BackgroundKey)
	require.Contains(t, withBackground.BackgroundURL, withBackground.BackgroundKey)

	resaved, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
		Elements:     []Element{{ID: "el_student", Content: "{{student_name}}", X: 176, Y: 270}},
	})
	require.NoError(t, err)
	require.Equal(t, withBackground.BackgroundKey, resaved.BackgroundKey)
}

func TestUploadBackgroundReplacesPrevious(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil)
	scope := adminScope()

	_, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
	})
	require.NoError(t, err)

	first, err := svc.UploadBackground(context.Background(), scope, "student_course_completion",
		"old.png", []byte("old"), "image/png")
	require.NoError(t, err)

	second, err := svc.UploadBackground(context.Background(), scope, "student_course_completion",
		"new.png", []byte("new"), "image/png")
	require.NoError(t, err)
	require.NotEqual(t, first.BackgroundKey, second.BackgroundKey)
	require.Contains(t, store.removed, first.BackgroundKey)
	require.Len(t, store.objects, 1)
}

func TestDeleteRemovesStoredBackground(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil)
	scope := adminScope()

	_, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
	})
	require.NoError(t, err)
	saved, err := svc.UploadBackground(context.Background(), scope, "student_course_completion",
		"bg.png", []byte("png"), "image/png")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), scope, "student_course_completion"))
	require.Contains(t, store.removed, saved.BackgroundKey)

	_, err = svc.Get(context.Background(), scope, "student_course_completion")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRenderSubstitutesEveryPlaceholder(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	scope := adminScope()

	_, err := svc.Save(context.Background(), scope, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
		Elements: []Element{
			{ID: "el_presented", Content: "This certificate is proudly presented to", X: 326, Y: 220},
			{ID: "el_student", Content: "{{student_name}}", X: 176, Y: 270},
			{ID: "el_course", Content: "for completing {{course_name}} at {{school_name}}", X: 226, Y: 400},
			{ID: "el_date", Content: "{{completion_date}}", X: 150, Y: 520},
		},
	})
	require.NoError(t, err)

	rendered, err := svc.Render(context.Background(), scope, "student_course_completion", RenderData{
		StudentName: "Bilal Khan",
		CourseName:  "Algebra Basics",
		SchoolName:  "Hillside Academy",
	})
	require.NoError(t, err)
	require.Len(t, rendered.Elements, 4)

	require.Equal(t, "This certificate is proudly presented to", rendered.Elements[0].Content)
	require.Equal(t, "Bilal Khan", rendered.Elements[1].Content)
	require.Equal(t, "for completing Algebra Basics at Hillside Academy", rendered.Elements[2].Content)
	require.Equal(t, "2026-03-14", rendered.Elements[3].Content)
	require.NotEmpty(t, rendered.CertificateID)
}

func TestRenderMissingTemplate(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Render(context.Background(), adminScope(), "student_course_completion", RenderData{StudentName: "X"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTemplatesScopedPerSchool(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	first := adminScope()
	second := adminScope()

	_, err := svc.Save(context.Background(), first, SaveInput{
		Name:         "Course completion",
		TemplateType: "student_course_completion",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), second, "student_course_completion")
	require.ErrorIs(t, err, shared.ErrNotFound)

	other, err := svc.List(context.Background(), second)
	require.NoError(t, err)
	require.Empty(t, other)
}
