package certificates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campushub-erp/campushub/internal/platform/objstore"
	"github.com/campushub-erp/campushub/internal/shared"
)

// RepositoryPort defines data access methods for templates.
type RepositoryPort interface {
	List(ctx context.Context, schoolID string) ([]Template, error)
	GetByType(ctx context.Context, schoolID, templateType string) (*Template, error)
	Upsert(ctx context.Context, t Template) (*Template, error)
	Delete(ctx context.Context, schoolID, templateType string) error
}

// ObjectStore stores certificate background images.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const backgroundURLTTL = 15 * time.Minute

// Service handles certificate template management and rendering.
type Service struct {
	repo     RepositoryPort
	store    ObjectStore
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance. The store may be nil when
// background uploads are disabled.
func NewService(repo RepositoryPort, store ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, validate: validator.New(), logger: logger, now: time.Now}
}

// SaveInput creates or replaces a template layout. TemplateType is a
// stable slug such as "student_course_completion".
type SaveInput struct {
	Name         string    `json:"name" validate:"required,min=1,max=160"`
	TemplateType string    `json:"template_type" validate:"required,max=80,excludesall= "`
	Elements     []Element `json:"elements" validate:"dive"`
}

// Save upserts the template of the given type for the caller's school.
func (s *Service) Save(ctx context.Context, scope shared.Scope, input SaveInput) (*Template, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	for i := range input.Elements {
		if strings.TrimSpace(input.Elements[i].Content) == "" {
			return nil, fmt.Errorf("certificates: element %d has no content", i)
		}
	}

	// Keep the existing background when the layout is re-saved.
	var backgroundKey string
	if existing, err := s.repo.GetByType(ctx, scope.SchoolID, input.TemplateType); err == nil {
		backgroundKey = existing.BackgroundKey
	}

	saved, err := s.repo.Upsert(ctx, Template{
		SchoolID:      scope.SchoolID,
		Name:          strings.TrimSpace(input.Name),
		TemplateType:  input.TemplateType,
		BackgroundKey: backgroundKey,
		Elements:      input.Elements,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("certificate template saved",
		slog.String("school_id", scope.SchoolID),
		slog.String("template_type", input.TemplateType),
		slog.Int("elements", len(input.Elements)))
	return saved, nil
}

// List returns all templates of the caller's school with presigned
// background URLs.
func (s *Service) List(ctx context.Context, scope shared.Scope) ([]Template, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	templates, err := s.repo.List(ctx, scope.SchoolID)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		s.resolveBackgroundURL(ctx, &templates[i])
	}
	return templates, nil
}

// Get loads the template of one type.
func (s *Service) Get(ctx context.Context, scope shared.Scope, templateType string) (*Template, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	t, err := s.repo.GetByType(ctx, scope.SchoolID, templateType)
	if err != nil {
		return nil, err
	}
	s.resolveBackgroundURL(ctx, t)
	return t, nil
}

// Delete removes a template and its stored background.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, templateType string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	t, err := s.repo.GetByType(ctx, scope.SchoolID, templateType)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope.SchoolID, templateType); err != nil {
		return err
	}
	if t.BackgroundKey != "" && s.store != nil {
		if err := s.store.Remove(ctx, t.BackgroundKey); err != nil {
			s.logger.Warn("remove certificate background failed", slog.Any("error", err))
		}
	}
	return nil
}

// UploadBackground stores a background image for a template type.
func (s *Service) UploadBackground(ctx context.Context, scope shared.Scope, templateType, fileName string, data []byte, contentType string) (*Template, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if s.store == nil {
		return nil, fmt.Errorf("certificates: background storage not configured")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("certificates: empty background upload")
	}
	t, err := s.repo.GetByType(ctx, scope.SchoolID, templateType)
	if err != nil {
		return nil, err
	}
	key, err := s.store.Put(ctx, objstore.ObjectKey("certificate-templates/"+scope.SchoolID, templateType+"-"+fileName), data, contentType)
	if err != nil {
		return nil, err
	}
	oldKey := t.BackgroundKey
	t.BackgroundKey = key
	saved, err := s.repo.Upsert(ctx, *t)
	if err != nil {
		return nil, err
	}
	if oldKey != "" {
		if err := s.store.Remove(ctx, oldKey); err != nil {
			s.logger.Warn("remove old certificate background failed", slog.Any("error", err))
		}
	}
	s.resolveBackgroundURL(ctx, saved)
	return saved, nil
}

// Render resolves the template of a type into a display-ready
// certificate, substituting placeholder variables in every element.
func (s *Service) Render(ctx context.Context, scope shared.Scope, templateType string, data RenderData) (*Rendered, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	t, err := s.repo.GetByType(ctx, scope.SchoolID, templateType)
	if err != nil {
		return nil, err
	}
	if data.CompletionDate == "" {
		data.CompletionDate = s.now().Format("2006-01-02")
	}
	if data.CertificateID == "" {
		data.CertificateID = uuid.NewString()
	}

	replacer := strings.NewReplacer(
		"{{student_name}}", data.StudentName,
		"{{course_name}}", data.CourseName,
		"{{completion_date}}", data.CompletionDate,
		"{{school_name}}", data.SchoolName,
		"{{certificate_id}}", data.CertificateID,
	)
	elements := make([]Element, len(t.Elements))
	for i, el := range t.Elements {
		el.Content = replacer.Replace(el.Content)
		elements[i] = el
	}

	rendered := &Rendered{
		TemplateID:    t.ID,
		TemplateType:  t.TemplateType,
		CertificateID: data.CertificateID,
		Elements:      elements,
	}
	s.resolveBackgroundURL(ctx, t)
	rendered.BackgroundURL = t.BackgroundURL
	return rendered, nil
}

func (s *Service) resolveBackgroundURL(ctx context.Context, t *Template) {
	if s.store == nil || t.BackgroundKey == "" {
		return
	}
	url, err := s.store.PresignedURL(ctx, t.BackgroundKey, backgroundURLTTL)
	if err != nil {
		s.logger.Warn("presign certificate background failed", slog.Any("error", err))
		return
	}
	t.BackgroundURL = url
}
