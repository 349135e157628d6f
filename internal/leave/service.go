package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campushub-erp/campushub/internal/shared"
)

// ErrNotReviewable rejects review transitions on applications that
// already left the pending state.
var ErrNotReviewable = errors.New("leave: application is not pending")

// RepositoryPort defines data access methods for leave.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]Application, error)
	Get(ctx context.Context, schoolID, id string) (*Application, error)
	Create(ctx context.Context, a Application) (*Application, error)
	UpdateReview(ctx context.Context, a Application) error
}

// Service handles leave application workflow.
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

// ApplyInput files a leave request.
type ApplyInput struct {
	ApplicantID string    `json:"applicant_id" validate:"required,uuid4"`
	LeaveType   Type      `json:"leave_type" validate:"required,oneof=casual sick earned unpaid"`
	FromDate    time.Time `json:"from_date" validate:"required"`
	ToDate      time.Time `json:"to_date" validate:"required"`
	Reason      string    `json:"reason" validate:"required,min=3,max=500"`
}

// Apply files a pending leave application.
func (s *Service) Apply(ctx context.Context, scope shared.Scope, input ApplyInput) (*Application, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if input.ToDate.Before(input.FromDate) {
		return nil, errors.New("leave: to_date must not be before from_date")
	}
	created, err := s.repo.Create(ctx, Application{
		SchoolID:    scope.SchoolID,
		ApplicantID: input.ApplicantID,
		LeaveType:   input.LeaveType,
		FromDate:    input.FromDate,
		ToDate:      input.ToDate,
		Reason:      input.Reason,
		Status:      StatusPending,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("leave application filed",
		slog.String("school_id", scope.SchoolID),
		slog.String("applicant_id", input.ApplicantID),
		slog.Int("days", created.Days()))
	return created, nil
}

// List returns applications of the caller's school.
func (s *Service) List(ctx context.Context, scope shared.Scope, f ListFilter) ([]Application, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	f.SchoolID = scope.SchoolID
	return s.repo.List(ctx, f)
}

// Get loads one application.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id string) (*Application, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.Get(ctx, scope.SchoolID, id)
}

// Approve transitions a pending application to approved.
func (s *Service) Approve(ctx context.Context, scope shared.Scope, id, note string) (*Application, error) {
	return s.review(ctx, scope, id, StatusApproved, note)
}

// Reject transitions a pending application to rejected.
func (s *Service) Reject(ctx context.Context, scope shared.Scope, id, note string) (*Application, error) {
	return s.review(ctx, scope, id, StatusRejected, note)
}

func (s *Service) review(ctx context.Context, scope shared.Scope, id string, status Status, note string) (*Application, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	a, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, ErrNotReviewable
	}
	a.Status = status
	a.ReviewedBy = scope.UserID
	a.ReviewNote = note
	a.ReviewedAt = s.now()
	if err := s.repo.UpdateReview(ctx, *a); err != nil {
		return nil, err
	}
	s.logger.Info("leave application reviewed",
		slog.String("application_id", a.ID),
		slog.String("status", string(status)))
	return a, nil
}

// Cancel withdraws a pending application. Only the applicant can
// cancel their own request.
func (s *Service) Cancel(ctx context.Context, scope shared.Scope, id string) (*Application, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	a, err := s.repo.Get(ctx, scope.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, ErrNotReviewable
	}
	if a.ApplicantID != scope.UserID {
		return nil, errors.New("leave: only the applicant can cancel a request")
	}
	a.Status = StatusCancelled
	a.ReviewedAt = s.now()
	if err := s.repo.UpdateReview(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}
