package teachers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub-erp/campushub/internal/platform/objstore"
	"github.com/campushub-erp/campushub/internal/shared"
)

// RepositoryPort defines data access methods for teachers.
type RepositoryPort interface {
	List(ctx context.Context, schoolID string) ([]Teacher, error)
	Get(ctx context.Context, schoolID, id string) (*Teacher, error)
	Create(ctx context.Context, t Teacher) (*Teacher, error)
	Update(ctx context.Context, t Teacher) error
}

// ObjectStore is the slice of the object storage client used for
// profile photos.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const photoURLTTL = 15 * time.Minute

// Service handles teacher management.
type Service struct {
	repo     RepositoryPort
	store    ObjectStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service instance. The store may be nil when
// photo uploads are disabled.
func NewService(repo RepositoryPort, store ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, validate: validator.New(), logger: logger}
}

// CreateInput registers a teacher.
type CreateInput struct {
	FullName      string    `json:"full_name" validate:"required,min=2,max=160"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         string    `json:"phone" validate:"max=20"`
	Qualification string    `json:"qualification" validate:"max=200"`
	Subject       string    `json:"subject" validate:"max=120"`
	JoiningDate   time.Time `json:"joining_date"`
}

// CreateResult carries the created teacher plus the one-time initial
// password shown to the admin exactly once.
type CreateResult struct {
	Teacher         *Teacher `json:"teacher"`
	InitialPassword string   `json:"initial_password"`
}

// Create registers a teacher with a generated initial password. The
// password is bcrypt-hashed at cost DefaultCost before storage and
// returned in clear exactly once.
func (s *Service) Create(ctx context.Context, scope shared.Scope, input CreateInput) (*CreateResult, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("teachers: hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, Teacher{
		SchoolID:      scope.SchoolID,
		FullName:      strings.TrimSpace(input.FullName),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         input.Phone,
		Qualification: input.Qualification,
		Subject:       input.Subject,
		JoiningDate:   input.JoiningDate,
		Status:        StatusActive,
		PasswordHash:  string(hash),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher created",
		slog.String("school_id", scope.SchoolID),
		slog.String("teacher_id", created.ID))
	return &CreateResult{Teacher: created, InitialPassword: password}, nil
}

// generatePassword returns a random 12-hex-char initial password.
func generatePassword() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("teachers: generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// List returns teachers of the caller's school, with presigned photo
// URLs resolved where a photo exists.
func (s *Service) List(ctx context.Context, scope shared.Scope) ([]Teacher, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	list, err := s.repo.List(ctx, scope.SchoolID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.resolvePhotoURL(ctx, &list[i])
	}
	return list, nil
}

// Get loads one teacher.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id string) (*Teacher, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	t, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	s.resolvePhotoURL(ctx, t)
	return t, nil
}

func (s *Service) resolvePhotoURL(ctx context.Context, t *Teacher) {
	if s.store == nil || t.PhotoKey == "" {
		return
	}
	url, err := s.store.PresignedURL(ctx, t.PhotoKey, photoURLTTL)
	if err != nil {
		s.logger.Warn("presign teacher photo failed",
			slog.String("teacher_id", t.ID), slog.Any("error", err))
		return
	}
	t.PhotoURL = url
}

// UpdateInput edits a teacher profile.
type UpdateInput struct {
	FullName      string    `json:"full_name" validate:"required,min=2,max=160"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         string    `json:"phone" validate:"max=20"`
	Qualification string    `json:"qualification" validate:"max=200"`
	Subject       string    `json:"subject" validate:"max=120"`
	JoiningDate   time.Time `json:"joining_date"`
}

// Update rewrites the editable fields of a teacher.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id string, input UpdateInput) (*Teacher, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	existing.FullName = strings.TrimSpace(input.FullName)
	existing.Email = strings.ToLower(strings.TrimSpace(input.Email))
	existing.Phone = input.Phone
	existing.Qualification = input.Qualification
	existing.Subject = input.Subject
	existing.JoiningDate = input.JoiningDate
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, err
	}
	s.resolvePhotoURL(ctx, existing)
	return existing, nil
}

// Deactivate marks a teacher as no longer employed.
func (s *Service) Deactivate(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	t, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return err
	}
	t.Status = StatusInactive
	return s.repo.Update(ctx, *t)
}

// ResetPassword issues a fresh initial password for a teacher.
func (s *Service) ResetPassword(ctx context.Context, scope shared.Scope, id string) (string, error) {
	if !scope.Valid() {
		return "", shared.ErrSchoolScopeMissing
	}
	t, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return "", err
	}
	password, err := generatePassword()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("teachers: hash password: %w", err)
	}
	t.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, *t); err != nil {
		return "", err
	}
	return password, nil
}

// VerifyPassword checks a login attempt against the stored hash.
func (s *Service) VerifyPassword(ctx context.Context, scope shared.Scope, id, password string) error {
	t, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password))
}

// UploadPhoto stores a profile photo and records its object key. A
// previous photo is removed from storage.
func (s *Service) UploadPhoto(ctx context.Context, scope shared.Scope, id, fileName string, data []byte, contentType string) (*Teacher, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if s.store == nil {
		return nil, fmt.Errorf("teachers: photo storage not configured")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("teachers: empty photo upload")
	}
	t, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}

	key, err := s.store.Put(ctx, objstore.ObjectKey("teachers/"+scope.SchoolID, fileName), data, contentType)
	if err != nil {
		return nil, err
	}
	oldKey := t.PhotoKey
	t.PhotoKey = key
	if err := s.repo.Update(ctx, *t); err != nil {
		return nil, err
	}
	if oldKey != "" {
		if err := s.store.Remove(ctx, oldKey); err != nil {
			s.logger.Warn("remove old teacher photo failed", slog.Any("error", err))
		}
	}
	s.resolvePhotoURL(ctx, t)
	return t, nil
}
