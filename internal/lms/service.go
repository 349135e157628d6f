package lms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campushub-erp/campushub/internal/platform/objstore"
	"github.com/campushub-erp/campushub/internal/shared"
)

// ErrNotPublished hides draft courses from students.
var ErrNotPublished = errors.New("lms: course is not published")

// RepositoryPort defines data access methods for the LMS.
type RepositoryPort interface {
	ListCourses(ctx context.Context, schoolID string, publishedOnly bool) ([]Course, error)
	GetCourse(ctx context.Context, schoolID, id string) (*Course, error)
	CreateCourse(ctx context.Context, c Course) (*Course, error)
	UpdateCourse(ctx context.Context, c Course) error
	DeleteCourse(ctx context.Context, schoolID, id string) error

	ListResources(ctx context.Context, courseID string) ([]Resource, error)
	CreateResource(ctx context.Context, res Resource) (*Resource, error)
	DeleteResource(ctx context.Context, courseID, id string) error

	ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
	CreateEnrollment(ctx context.Context, e Enrollment) (*Enrollment, error)
	UpdateProgress(ctx context.Context, courseID, userID string, progress int) error

	AddFavorite(ctx context.Context, userID, courseID string) error
	RemoveFavorite(ctx context.Context, userID, courseID string) error
	ListFavoriteCourseIDs(ctx context.Context, userID string) ([]string, error)
}

// ObjectStore stores uploaded course material.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// Service handles LMS business logic.
type Service struct {
	repo     RepositoryPort
	store    ObjectStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service instance. The store may be nil when file
// uploads are disabled; link resources still work.
func NewService(repo RepositoryPort, store ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, validate: validator.New(), logger: logger}
}

// CourseInput creates or edits a course.
type CourseInput struct {
	Title          string `json:"title" validate:"required,min=2,max=200"`
	Description    string `json:"description" validate:"max=2000"`
	Subject        string `json:"subject" validate:"max=120"`
	TeacherID      string `json:"teacher_id" validate:"omitempty,uuid4"`
	TargetAudience string `json:"target_audience" validate:"omitempty,oneof=student teacher both"`
}

// CreateCourse creates a draft course.
func (s *Service) CreateCourse(ctx context.Context, scope shared.Scope, input CourseInput) (*Course, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	audience := input.TargetAudience
	if audience == "" {
		audience = AudienceStudent
	}
	return s.repo.CreateCourse(ctx, Course{
		SchoolID:       scope.SchoolID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Subject:        input.Subject,
		TeacherID:      input.TeacherID,
		TargetAudience: audience,
		Published:      false,
	})
}

// ListCourses returns courses. Students only ever see published ones;
// admins and teachers also see drafts.
func (s *Service) ListCourses(ctx context.Context, scope shared.Scope) ([]Course, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	publishedOnly := scope.Role == shared.RoleStudent
	return s.repo.ListCourses(ctx, scope.SchoolID, publishedOnly)
}

// GetCourse loads one course, hiding drafts from students.
func (s *Service) GetCourse(ctx context.Context, scope shared.Scope, id string) (*Course, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	c, err := s.repo.GetCourse(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if !c.Published && scope.Role == shared.RoleStudent {
		return nil, ErrNotPublished
	}
	return c, nil
}

// UpdateCourse rewrites the editable fields.
func (s *Service) UpdateCourse(ctx context.Context, scope shared.Scope, id string, input CourseInput) (*Course, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCourse(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	c.Title = strings.TrimSpace(input.Title)
	c.Description = input.Description
	c.Subject = input.Subject
	c.TeacherID = input.TeacherID
	if input.TargetAudience != "" {
		c.TargetAudience = input.TargetAudience
	}
	if err := s.repo.UpdateCourse(ctx, *c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPublished flips course visibility.
func (s *Service) SetPublished(ctx context.Context, scope shared.Scope, id string, published bool) (*Course, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	c, err := s.repo.GetCourse(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	c.Published = published
	if err := s.repo.UpdateCourse(ctx, *c); err != nil {
		return nil, err
	}
	s.logger.Info("course visibility changed",
		slog.String("course_id", id), slog.Bool("published", published))
	return c, nil
}

// DeleteCourse removes a course entirely.
func (s *Service) DeleteCourse(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	return s.repo.DeleteCourse(ctx, scope.SchoolID, id)
}

// LinkResourceInput attaches external material to a course.
type LinkResourceInput struct {
	Title string       `json:"title" validate:"required,min=1,max=200"`
	Kind  ResourceKind `json:"kind" validate:"required,oneof=note video ebook webinar"`
	URL   string       `json:"url" validate:"required,url"`
}

// AddLinkResource attaches an external URL as course material.
func (s *Service) AddLinkResource(ctx context.Context, scope shared.Scope, courseID string, input LinkResourceInput) (*Resource, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCourse(ctx, scope.SchoolID, courseID); err != nil {
		return nil, err
	}
	return s.repo.CreateResource(ctx, Resource{
		CourseID: courseID,
		Title:    strings.TrimSpace(input.Title),
		Kind:     input.Kind,
		URL:      input.URL,
	})
}

// AddFileResource uploads material to object storage and attaches it.
func (s *Service) AddFileResource(ctx context.Context, scope shared.Scope, courseID, title, fileName string, data []byte, contentType string) (*Resource, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if s.store == nil {
		return nil, fmt.Errorf("lms: file storage not configured")
	}
	if title == "" || len(data) == 0 {
		return nil, fmt.Errorf("lms: title and file content are required")
	}
	if _, err := s.repo.GetCourse(ctx, scope.SchoolID, courseID); err != nil {
		return nil, err
	}
	key, err := s.store.Put(ctx, objstore.ObjectKey("lms/"+scope.SchoolID, fileName), data, contentType)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateResource(ctx, Resource{
		CourseID:  courseID,
		Title:     strings.TrimSpace(title),
		Kind:      ResourceEbook,
		ObjectKey: key,
	})
}

// ListResources returns course material for an accessible course.
func (s *Service) ListResources(ctx context.Context, scope shared.Scope, courseID string) ([]Resource, error) {
	if _, err := s.GetCourse(ctx, scope, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListResources(ctx, courseID)
}

// RemoveResource detaches material, deleting any stored file.
func (s *Service) RemoveResource(ctx context.Context, scope shared.Scope, courseID, resourceID string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	if _, err := s.repo.GetCourse(ctx, scope.SchoolID, courseID); err != nil {
		return err
	}
	resources, err := s.repo.ListResources(ctx, courseID)
	if err != nil {
		return err
	}
	var key string
	for _, res := range resources {
		if res.ID == resourceID {
			key = res.ObjectKey
			break
		}
	}
	if err := s.repo.DeleteResource(ctx, courseID, resourceID); err != nil {
		return err
	}
	if key != "" && s.store != nil {
		if err := s.store.Remove(ctx, key); err != nil {
			s.logger.Warn("remove course file failed", slog.Any("error", err))
		}
	}
	return nil
}

// ErrWrongAudience rejects enrolments outside the course's target
// audience.
var ErrWrongAudience = errors.New("lms: user type outside the course audience")

// EnrollInput enrols one student or teacher.
type EnrollInput struct {
	UserID   string `json:"user_id" validate:"required,uuid4"`
	UserType string `json:"user_type" validate:"required,oneof=student teacher"`
}

// Enroll adds a user to a published course once, respecting the
// course's target audience.
func (s *Service) Enroll(ctx context.Context, scope shared.Scope, courseID string, input EnrollInput) (*Enrollment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCourse(ctx, scope.SchoolID, courseID)
	if err != nil {
		return nil, err
	}
	if !c.Published {
		return nil, ErrNotPublished
	}
	if c.TargetAudience != "" && c.TargetAudience != AudienceBoth && c.TargetAudience != input.UserType {
		return nil, ErrWrongAudience
	}
	return s.repo.CreateEnrollment(ctx, Enrollment{
		CourseID: courseID,
		UserID:   input.UserID,
		UserType: input.UserType,
	})
}

// ListEnrollments returns the roster of a course.
func (s *Service) ListEnrollments(ctx context.Context, scope shared.Scope, courseID string) ([]Enrollment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if _, err := s.repo.GetCourse(ctx, scope.SchoolID, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListEnrollments(ctx, courseID)
}

// UpdateProgress records a completion percentage between 0 and 100.
func (s *Service) UpdateProgress(ctx context.Context, scope shared.Scope, courseID, userID string, progress int) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	if progress < 0 || progress > 100 {
		return fmt.Errorf("lms: progress must be between 0 and 100")
	}
	if _, err := s.repo.GetCourse(ctx, scope.SchoolID, courseID); err != nil {
		return err
	}
	return s.repo.UpdateProgress(ctx, courseID, userID, progress)
}

// Favorite marks a course as a favorite of the calling user.
func (s *Service) Favorite(ctx context.Context, scope shared.Scope, courseID string) error {
	if _, err := s.GetCourse(ctx, scope, courseID); err != nil {
		return err
	}
	return s.repo.AddFavorite(ctx, scope.UserID, courseID)
}

// Unfavorite removes a favorite mark.
func (s *Service) Unfavorite(ctx context.Context, scope shared.Scope, courseID string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	return s.repo.RemoveFavorite(ctx, scope.UserID, courseID)
}

// ListFavorites returns the caller's favorite courses.
func (s *Service) ListFavorites(ctx context.Context, scope shared.Scope) ([]Course, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	ids, err := s.repo.ListFavoriteCourseIDs(ctx, scope.UserID)
	if err != nil {
		return nil, err
	}
	favorites := make(map[string]bool, len(ids))
	for _, id := range ids {
		favorites[id] = true
	}
	courses, err := s.ListCourses(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]Course, 0, len(ids))
	for _, c := range courses {
		if favorites[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}
