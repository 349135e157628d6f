package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates fee payment statuses.
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "Pending"
	StatusPartiallyPaid PaymentStatus = "Partially Paid"
	StatusPaid          PaymentStatus = "Paid"
	StatusOverdue       PaymentStatus = "Overdue"
)

// DuesStatuses is the status set that counts as "has outstanding dues".
// Overdue is assigned by the nightly scan, never derived here.
var DuesStatuses = []PaymentStatus{StatusPending, StatusPartiallyPaid, StatusOverdue}

// DeriveStatus recomputes the status after a payment mutation.
func DeriveStatus(assigned, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(assigned) && assigned.IsPositive():
		return StatusPaid
	case paid.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusPending
	}
}

// FeeTypeKind distinguishes regular fee types from extra charges.
type FeeTypeKind string

const (
	FeeTypeRegular     FeeTypeKind = "installments"
	FeeTypeExtraCharge FeeTypeKind = "extra_charge"
)

// HeadClassifier selects which family of fee heads a filter targets.
// Exactly one classifier applies per report invocation.
type HeadClassifier string

const (
	ClassifierFeeType     HeadClassifier = "fee_type"
	ClassifierSpecialType HeadClassifier = "special_fee_type"
	ClassifierInstallment HeadClassifier = "installment"
)

// FeePayment is one fee obligation instance for a student. Amounts are
// fixed-point decimals; missing numeric columns load as zero.
type FeePayment struct {
	ID        string
	SchoolID  string
	StudentID string

	AssignedAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	Status         PaymentStatus

	DueDate     time.Time
	PaymentDate time.Time
	PaymentMode string
	Notes       string

	// Exactly one of these classification references is normally set.
	FeeCategoryID string
	FeeTypeID     string
	InstallmentID string
	FeeGroupID    string

	AcademicYearID string

	Concessions []Concession

	// Denormalised display fields resolved by the repository join.
	StudentName      string
	FatherName       string
	RollNumber       string
	ClassID          string
	ClassName        string
	ClassDivision    string
	CategoryName     string
	FeeTypeName      string
	InstallmentTitle string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Concession is a discount applied to one fee payment. Immutable once
// recorded.
type Concession struct {
	ID           string
	FeePaymentID string
	Amount       decimal.Decimal
	Reason       string
	CreatedAt    time.Time
}

// FeeCategory is a fee head label (Tuition, Transport, ...).
type FeeCategory struct {
	ID       string
	SchoolID string
	Name     string
}

// FeeType classifies a charge as regular or extra.
type FeeType struct {
	ID          string
	SchoolID    string
	Name        string
	DisplayName string
	Kind        FeeTypeKind
}

// FeeGroup bundles fee types for group-wise reporting.
type FeeGroup struct {
	ID       string
	SchoolID string
	Name     string
}

// Installment is a scheduled partial-payment plan head.
type Installment struct {
	ID       string
	SchoolID string
	Title    string
}

// PaymentMethod is an admin-managed payment mode (Cash, UPI, ...).
type PaymentMethod struct {
	ID          string
	SchoolID    string
	Name        string
	Description string
}
