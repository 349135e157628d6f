package leave

import "time"

// Status of a leave application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Type of leave being requested.
type Type string

const (
	TypeCasual Type = "casual"
	TypeSick   Type = "sick"
	TypeEarned Type = "earned"
	TypeUnpaid Type = "unpaid"
)

// Application is one leave request filed by a staff member.
type Application struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`

	ApplicantID   string `json:"applicant_id"`
	ApplicantName string `json:"applicant_name"`

	LeaveType Type      `json:"leave_type"`
	FromDate  time.Time `json:"from_date"`
	ToDate    time.Time `json:"to_date"`
	Reason    string    `json:"reason"`

	Status     Status    `json:"status"`
	ReviewedBy string    `json:"reviewed_by,omitempty"`
	ReviewNote string    `json:"review_note,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Days is the inclusive calendar length of the leave.
func (a Application) Days() int {
	if a.ToDate.Before(a.FromDate) {
		return 0
	}
	return int(a.ToDate.Sub(a.FromDate).Hours()/24) + 1
}

// ListFilter narrows application listings.
type ListFilter struct {
	SchoolID    string
	ApplicantID string
	Status      Status
	From        time.Time
	To          time.Time
}
