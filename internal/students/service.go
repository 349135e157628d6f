package students

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campushub-erp/campushub/internal/shared"
)

// RepositoryPort defines data access methods for students.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]Student, int, error)
	Get(ctx context.Context, schoolID, id string) (*Student, error)
	Create(ctx context.Context, st Student) (*Student, error)
	Update(ctx context.Context, st Student) error
	NextAdmissionSequence(ctx context.Context, schoolID string, year int) (int, error)

	ListClasses(ctx context.Context, schoolID string) ([]Class, error)
	CreateClass(ctx context.Context, c Class) (*Class, error)
	DeleteClass(ctx context.Context, schoolID, id string) error
}

// Service handles admissions and student records.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validate: validator.New(), logger: logger, now: time.Now}
}

// AdmitInput admits a new student.
type AdmitInput struct {
	FullName      string    `json:"full_name" validate:"required,min=2,max=160"`
	FatherName    string    `json:"father_name" validate:"max=160"`
	MotherName    string    `json:"mother_name" validate:"max=160"`
	ClassID       string    `json:"class_id" validate:"omitempty,uuid4"`
	RollNumber    string    `json:"roll_number" validate:"max=40"`
	AdmissionDate time.Time `json:"admission_date"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Gender        string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Phone         string    `json:"phone" validate:"max=20"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Address       string    `json:"address" validate:"max=500"`
}

// Admit creates a student with a generated admission number of the
// form ADM-{year}-{seq}. The sequence is per school and year.
func (s *Service) Admit(ctx context.Context, scope shared.Scope, input AdmitInput) (*Student, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	admitted := input.AdmissionDate
	if admitted.IsZero() {
		admitted = s.now()
	}
	seq, err := s.repo.NextAdmissionSequence(ctx, scope.SchoolID, admitted.Year())
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, Student{
		SchoolID:        scope.SchoolID,
		FullName:        strings.TrimSpace(input.FullName),
		FatherName:      input.FatherName,
		MotherName:      input.MotherName,
		AdmissionNumber: fmt.Sprintf("ADM-%d-%04d", admitted.Year(), seq),
		AdmissionDate:   admitted,
		RollNumber:      input.RollNumber,
		ClassID:         input.ClassID,
		DateOfBirth:     input.DateOfBirth,
		Gender:          input.Gender,
		Phone:           input.Phone,
		Email:           input.Email,
		Address:         input.Address,
		Status:          StatusActive,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("student admitted",
		slog.String("school_id", scope.SchoolID),
		slog.String("student_id", created.ID),
		slog.String("admission_number", created.AdmissionNumber))
	return created, nil
}

// List returns students of the caller's school.
func (s *Service) List(ctx context.Context, scope shared.Scope, f ListFilter) ([]Student, int, error) {
	if !scope.Valid() {
		return nil, 0, shared.ErrSchoolScopeMissing
	}
	f.SchoolID = scope.SchoolID
	return s.repo.List(ctx, f)
}

// Get loads one student.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id string) (*Student, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.Get(ctx, scope.SchoolID, id)
}

// UpdateInput edits a student profile. Admission fields are immutable.
type UpdateInput struct {
	FullName    string    `json:"full_name" validate:"required,min=2,max=160"`
	FatherName  string    `json:"father_name" validate:"max=160"`
	MotherName  string    `json:"mother_name" validate:"max=160"`
	ClassID     string    `json:"class_id" validate:"omitempty,uuid4"`
	RollNumber  string    `json:"roll_number" validate:"max=40"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Phone       string    `json:"phone" validate:"max=20"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Address     string    `json:"address" validate:"max=500"`
}

// Update rewrites the editable fields of a student.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id string, input UpdateInput) (*Student, error) {
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
	existing.FatherName = input.FatherName
	existing.MotherName = input.MotherName
	existing.ClassID = input.ClassID
	existing.RollNumber = input.RollNumber
	existing.DateOfBirth = input.DateOfBirth
	existing.Gender = input.Gender
	existing.Phone = input.Phone
	existing.Email = input.Email
	existing.Address = input.Address
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Deactivate takes a student off the active roll without deleting the
// record, so fee history stays intact.
func (s *Service) Deactivate(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	st, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return err
	}
	st.Status = StatusInactive
	return s.repo.Update(ctx, *st)
}

// ClassInput creates a class section.
type ClassInput struct {
	Name     string `json:"name" validate:"required,min=1,max=60"`
	Division string `json:"division" validate:"max=10"`
}

func (s *Service) ListClasses(ctx context.Context, scope shared.Scope) ([]Class, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.ListClasses(ctx, scope.SchoolID)
}

func (s *Service) CreateClass(ctx context.Context, scope shared.Scope, input ClassInput) (*Class, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.CreateClass(ctx, Class{
		SchoolID: scope.SchoolID,
		Name:     strings.TrimSpace(input.Name),
		Division: strings.TrimSpace(input.Division),
	})
}

func (s *Service) DeleteClass(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	return s.repo.DeleteClass(ctx, scope.SchoolID, id)
}
