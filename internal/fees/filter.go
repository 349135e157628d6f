package fees

import "time"

// Filter narrows fee payment listings. The zero value matches every
// payment of a school; SchoolID is mandatory.
type Filter struct {
	SchoolID  string
	StudentID string
	ClassID   string

	Statuses []PaymentStatus

	// Head classification. FeeTypeIDs restricts to a resolved set of
	// fee type ids; RequireInstallment keeps only installment-linked
	// lines while ExcludeInstallments drops them.
	FeeCategoryID       string
	FeeTypeIDs          []string
	InstallmentID       string
	RequireInstallment  bool
	ExcludeInstallments bool
	FeeGroupID          string

	PaymentMode        string
	ExcludePaymentMode string

	AcademicYearID string

	DueFrom  time.Time
	DueTo    time.Time
	PaidFrom time.Time
	PaidTo   time.Time
	// PaidOn matches the calendar date of payment_date exactly.
	PaidOn time.Time

	// Search matches student name or father name, case-insensitive.
	Search string

	// MatchNone marks a fail-closed head resolution: the filter is
	// valid but can never match, so listings return no rows without
	// touching storage.
	MatchNone bool

	Limit  int
	Offset int
}
