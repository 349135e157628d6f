package teachers

import "time"

// TeacherStatus marks whether a teacher is currently employed.
type TeacherStatus string

const (
	StatusActive   TeacherStatus = "active"
	StatusInactive TeacherStatus = "inactive"
)

// Teacher is a teaching staff member. PasswordHash never leaves the
// service layer.
type Teacher struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`

	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Qualification string    `json:"qualification"`
	Subject       string    `json:"subject"`
	JoiningDate   time.Time `json:"joining_date"`

	PhotoKey string `json:"photo_key,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`

	Status TeacherStatus `json:"status"`

	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
