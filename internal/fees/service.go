package fees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/campushub-erp/campushub/internal/shared"
)

// ErrPaymentMethodInUse rejects deleting a payment method that fee
// payments still reference by name.
var ErrPaymentMethodInUse = errors.New("fees: payment method is referenced by recorded payments")

// RepositoryPort defines data access methods for fees.
type RepositoryPort interface {
	ListPayments(ctx context.Context, f Filter) ([]FeePayment, error)
	GetPayment(ctx context.Context, schoolID, id string) (*FeePayment, error)
	CreatePayment(ctx context.Context, p FeePayment) (*FeePayment, error)
	UpdatePaymentCollection(ctx context.Context, p FeePayment) error
	DeletePayment(ctx context.Context, schoolID, id string) error
	MarkOverdue(ctx context.Context, schoolID string, asOf time.Time) (int64, error)
	ListSchoolIDs(ctx context.Context) ([]string, error)
	AddConcession(ctx context.Context, c Concession) (*Concession, error)

	ListCategories(ctx context.Context, schoolID string) ([]FeeCategory, error)
	CreateCategory(ctx context.Context, c FeeCategory) (*FeeCategory, error)
	UpdateCategory(ctx context.Context, c FeeCategory) error
	DeleteCategory(ctx context.Context, schoolID, id string) error

	ListFeeTypes(ctx context.Context, schoolID string, kind FeeTypeKind) ([]FeeType, error)
	CreateFeeType(ctx context.Context, t FeeType) (*FeeType, error)
	DeleteFeeType(ctx context.Context, schoolID, id string) error

	ListInstallments(ctx context.Context, schoolID string) ([]Installment, error)
	CreateInstallment(ctx context.Context, ins Installment) (*Installment, error)

	ListFeeGroups(ctx context.Context, schoolID string) ([]FeeGroup, error)
	CreateFeeGroup(ctx context.Context, g FeeGroup) (*FeeGroup, error)

	ListPaymentMethods(ctx context.Context, schoolID string) ([]PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, schoolID, id string) (*PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, m PaymentMethod) (*PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, m PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, schoolID, id string) error
	CountPaymentsByMode(ctx context.Context, schoolID, modeName string) (int64, error)
}

// ChangeNotifier is told whenever stored fee figures change, so report
// caches can drop stale aggregates.
type ChangeNotifier interface {
	Bump(ctx context.Context) error
}

// Service handles fee business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
	notifier ChangeNotifier
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// SetNotifier installs the change notifier. Safe to skip when no report
// cache is configured.
func (s *Service) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

func (s *Service) notifyChange(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}

// AssignFeeInput creates a fee obligation for a student.
type AssignFeeInput struct {
	StudentID      string          `json:"student_id" validate:"required,uuid4"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	FeeCategoryID  string          `json:"fee_category_id" validate:"omitempty,uuid4"`
	FeeTypeID      string          `json:"fee_type_id" validate:"omitempty,uuid4"`
	InstallmentID  string          `json:"installment_id" validate:"omitempty,uuid4"`
	FeeGroupID     string          `json:"fee_group_id" validate:"omitempty,uuid4"`
	AcademicYearID string          `json:"academic_year_id" validate:"omitempty,uuid4"`
	Notes          string          `json:"notes"`
}

// AssignFee creates a pending fee payment for a student.
func (s *Service) AssignFee(ctx context.Context, scope shared.Scope, input AssignFeeInput) (*FeePayment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("fees: assigned amount must be positive")
	}
	created, err := s.repo.CreatePayment(ctx, FeePayment{
		SchoolID:       scope.SchoolID,
		StudentID:      input.StudentID,
		AssignedAmount: input.Amount,
		PaidAmount:     decimal.Zero,
		Status:         StatusPending,
		DueDate:        input.DueDate,
		FeeCategoryID:  input.FeeCategoryID,
		FeeTypeID:      input.FeeTypeID,
		InstallmentID:  input.InstallmentID,
		FeeGroupID:     input.FeeGroupID,
		AcademicYearID: input.AcademicYearID,
		Notes:          input.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx)
	s.logger.Info("fee assigned",
		slog.String("school_id", scope.SchoolID),
		slog.String("student_id", input.StudentID),
		slog.String("amount", input.Amount.StringFixed(2)))
	return created, nil
}

// RecordPaymentInput registers a collection against an assignment.
type RecordPaymentInput struct {
	FeePaymentID string          `json:"fee_payment_id" validate:"required,uuid4"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  time.Time       `json:"payment_date"`
	PaymentMode  string          `json:"payment_mode" validate:"required"`
	Note         string          `json:"note"`
}

// RecordPayment applies a collection to a fee payment. The stored paid
// amount is clamped at the assigned amount and the status recomputed,
// so a line can never stay Partially Paid after an overpayment.
func (s *Service) RecordPayment(ctx context.Context, scope shared.Scope, input RecordPaymentInput) (*FeePayment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("fees: payment amount must be positive")
	}

	payment, err := s.repo.GetPayment(ctx, scope.SchoolID, input.FeePaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == StatusPaid {
		return nil, errors.New("fees: payment is already settled")
	}

	when := input.PaymentDate
	if when.IsZero() {
		when = time.Now()
	}

	paid := payment.PaidAmount.Add(input.Amount)
	if paid.GreaterThan(payment.AssignedAmount) {
		paid = payment.AssignedAmount
	}
	payment.PaidAmount = paid
	payment.Status = DeriveStatus(payment.AssignedAmount, paid)
	payment.PaymentDate = when
	payment.PaymentMode = input.PaymentMode
	payment.Notes = appendNote(payment.Notes, collectionNote(input.Amount, when, input.PaymentMode, input.Note))

	if err := s.repo.UpdatePaymentCollection(ctx, *payment); err != nil {
		return nil, err
	}
	s.notifyChange(ctx)
	s.logger.Info("fee payment recorded",
		slog.String("school_id", scope.SchoolID),
		slog.String("fee_payment_id", payment.ID),
		slog.String("amount", input.Amount.StringFixed(2)),
		slog.String("status", string(payment.Status)))
	return payment, nil
}

func collectionNote(amount decimal.Decimal, when time.Time, mode, note string) string {
	entry := fmt.Sprintf("Received %s via %s on %s", amount.StringFixed(2), mode, when.Format("2006-01-02"))
	if note != "" {
		entry += ": " + note
	}
	return entry
}

func appendNote(existing, entry string) string {
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}

// ConcessionInput applies a discount to a fee payment.
type ConcessionInput struct {
	FeePaymentID string          `json:"fee_payment_id" validate:"required,uuid4"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason" validate:"required"`
}

// AddConcession records a concession after checking the payment
// belongs to the caller's school.
func (s *Service) AddConcession(ctx context.Context, scope shared.Scope, input ConcessionInput) (*Concession, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("fees: concession amount must be positive")
	}
	if _, err := s.repo.GetPayment(ctx, scope.SchoolID, input.FeePaymentID); err != nil {
		return nil, err
	}
	created, err := s.repo.AddConcession(ctx, Concession{
		FeePaymentID: input.FeePaymentID,
		Amount:       input.Amount,
		Reason:       input.Reason,
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx)
	return created, nil
}

// ListPayments returns payments of the caller's school matching the
// filter. The filter's SchoolID is always overwritten from the scope.
func (s *Service) ListPayments(ctx context.Context, scope shared.Scope, f Filter) ([]FeePayment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	f.SchoolID = scope.SchoolID
	return s.repo.ListPayments(ctx, f)
}

// GetPayment loads a single fee payment.
func (s *Service) GetPayment(ctx context.Context, scope shared.Scope, id string) (*FeePayment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.GetPayment(ctx, scope.SchoolID, id)
}

// DeletePayment removes a fee assignment.
func (s *Service) DeletePayment(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	if err := s.repo.DeletePayment(ctx, scope.SchoolID, id); err != nil {
		return err
	}
	s.notifyChange(ctx)
	return nil
}

// StudentLedger returns every fee line of one student with the rolled
// up totals.
func (s *Service) StudentLedger(ctx context.Context, scope shared.Scope, studentID string) ([]FeePayment, StudentRollup, error) {
	payments, err := s.ListPayments(ctx, scope, Filter{StudentID: studentID})
	if err != nil {
		return nil, StudentRollup{}, err
	}
	rollups := AggregateByStudent(payments, RollupOptions{WithConcessions: true})
	if len(rollups) == 0 {
		return payments, StudentRollup{StudentID: studentID}, nil
	}
	return payments, rollups[0], nil
}

// ApplyHeadFilter resolves a head classifier plus optional head id into
// filter constraints. Resolution is fail-closed: an unknown or
// mismatched head marks the filter MatchNone instead of widening it.
func (s *Service) ApplyHeadFilter(ctx context.Context, scope shared.Scope, f *Filter, classifier HeadClassifier, headID string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	switch classifier {
	case ClassifierFeeType, ClassifierSpecialType:
		kind := FeeTypeRegular
		if classifier == ClassifierSpecialType {
			kind = FeeTypeExtraCharge
		}
		types, err := s.repo.ListFeeTypes(ctx, scope.SchoolID, kind)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(types))
		for _, t := range types {
			ids = append(ids, t.ID)
		}
		if len(ids) == 0 {
			f.MatchNone = true
			return nil
		}
		if headID != "" {
			if !containsString(ids, headID) {
				f.MatchNone = true
				return nil
			}
			f.FeeTypeIDs = []string{headID}
			return nil
		}
		f.FeeTypeIDs = ids
		return nil

	case ClassifierInstallment:
		f.RequireInstallment = true
		if headID == "" {
			return nil
		}
		installments, err := s.repo.ListInstallments(ctx, scope.SchoolID)
		if err != nil {
			return err
		}
		for _, ins := range installments {
			if ins.ID == headID {
				f.InstallmentID = headID
				return nil
			}
		}
		f.MatchNone = true
		return nil

	default:
		return fmt.Errorf("fees: unknown head classifier %q", classifier)
	}
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// MarkOverdueForSchool flips pending payments past due for one school.
func (s *Service) MarkOverdueForSchool(ctx context.Context, schoolID string, asOf time.Time) (int64, error) {
	if schoolID == "" {
		return 0, shared.ErrSchoolScopeMissing
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return s.repo.MarkOverdue(ctx, schoolID, asOf)
}

// SchoolIDs lists every tenant that has fee payments.
func (s *Service) SchoolIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListSchoolIDs(ctx)
}

// --- Dimension management ---

// DimensionInput is a named dimension create or rename request.
type DimensionInput struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

func (s *Service) ListCategories(ctx context.Context, scope shared.Scope) ([]FeeCategory, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.ListCategories(ctx, scope.SchoolID)
}

func (s *Service) CreateCategory(ctx context.Context, scope shared.Scope, input DimensionInput) (*FeeCategory, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.CreateCategory(ctx, FeeCategory{SchoolID: scope.SchoolID, Name: strings.TrimSpace(input.Name)})
}

func (s *Service) RenameCategory(ctx context.Context, scope shared.Scope, id string, input DimensionInput) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return err
	}
	return s.repo.UpdateCategory(ctx, FeeCategory{ID: id, SchoolID: scope.SchoolID, Name: strings.TrimSpace(input.Name)})
}

func (s *Service) DeleteCategory(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	return s.repo.DeleteCategory(ctx, scope.SchoolID, id)
}

// FeeTypeInput creates a fee type of a given kind.
type FeeTypeInput struct {
	Name        string      `json:"name" validate:"required,min=1,max=120"`
	DisplayName string      `json:"display_name"`
	Kind        FeeTypeKind `json:"kind" validate:"required,oneof=installments extra_charge"`
}

func (s *Service) ListFeeTypes(ctx context.Context, scope shared.Scope, kind FeeTypeKind) ([]FeeType, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.ListFeeTypes(ctx, scope.SchoolID, kind)
}

func (s *Service) CreateFeeType(ctx context.Context, scope shared.Scope, input FeeTypeInput) (*FeeType, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	display := input.DisplayName
	if display == "" {
		display = input.Name
	}
	return s.repo.CreateFeeType(ctx, FeeType{
		SchoolID:    scope.SchoolID,
		Name:        strings.TrimSpace(input.Name),
		DisplayName: display,
		Kind:        input.Kind,
	})
}

func (s *Service) DeleteFeeType(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	return s.repo.DeleteFeeType(ctx, scope.SchoolID, id)
}

func (s *Service) ListInstallments(ctx context.Context, scope shared.Scope) ([]Installment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.ListInstallments(ctx, scope.SchoolID)
}

func (s *Service) CreateInstallment(ctx context.Context, scope shared.Scope, input DimensionInput) (*Installment, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.CreateInstallment(ctx, Installment{SchoolID: scope.SchoolID, Title: strings.TrimSpace(input.Name)})
}

func (s *Service) ListFeeGroups(ctx context.Context, scope shared.Scope) ([]FeeGroup, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.ListFeeGroups(ctx, scope.SchoolID)
}

func (s *Service) CreateFeeGroup(ctx context.Context, scope shared.Scope, input DimensionInput) (*FeeGroup, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.CreateFeeGroup(ctx, FeeGroup{SchoolID: scope.SchoolID, Name: strings.TrimSpace(input.Name)})
}

// PaymentMethodInput creates or updates a payment method.
type PaymentMethodInput struct {
	Name        string `json:"name" validate:"required,min=1,max=60"`
	Description string `json:"description" validate:"max=300"`
}

func (s *Service) ListPaymentMethods(ctx context.Context, scope shared.Scope) ([]PaymentMethod, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	return s.repo.ListPaymentMethods(ctx, scope.SchoolID)
}

func (s *Service) CreatePaymentMethod(ctx context.Context, scope shared.Scope, input PaymentMethodInput) (*PaymentMethod, error) {
	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	return s.repo.CreatePaymentMethod(ctx, PaymentMethod{
		SchoolID:    scope.SchoolID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	})
}

func (s *Service) UpdatePaymentMethod(ctx context.Context, scope shared.Scope, id string, input PaymentMethodInput) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	if err := s.validate.Struct(input); err != nil {
		return err
	}
	return s.repo.UpdatePaymentMethod(ctx, PaymentMethod{
		ID:          id,
		SchoolID:    scope.SchoolID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	})
}

// DeletePaymentMethod refuses to delete a method that recorded
// payments still reference by name.
func (s *Service) DeletePaymentMethod(ctx context.Context, scope shared.Scope, id string) error {
	if !scope.Valid() {
		return shared.ErrSchoolScopeMissing
	}
	method, err := s.repo.GetPaymentMethod(ctx, scope.SchoolID, id)
	if err != nil {
		return err
	}
	used, err := s.repo.CountPaymentsByMode(ctx, scope.SchoolID, method.Name)
	if err != nil {
		return err
	}
	if used > 0 {
		return fmt.Errorf("%w: %d payments use %q", ErrPaymentMethodInUse, used, method.Name)
	}
	return s.repo.DeletePaymentMethod(ctx, scope.SchoolID, id)
}
