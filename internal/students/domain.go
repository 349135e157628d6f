package students

import "time"

// StudentStatus marks whether a student is on the active roll.
type StudentStatus string

const (
	StatusActive   StudentStatus = "active"
	StatusInactive StudentStatus = "inactive"
)

// Student is one admitted student of a school.
type Student struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`

	FullName   string `json:"full_name"`
	FatherName string `json:"father_name"`
	MotherName string `json:"mother_name"`

	AdmissionNumber string    `json:"admission_number"`
	AdmissionDate   time.Time `json:"admission_date"`
	RollNumber      string    `json:"roll_number"`
	ClassID         string    `json:"class_id"`
	ClassName       string    `json:"class_name"`
	ClassDivision   string    `json:"class_division"`

	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`

	Status StudentStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Class is a class section, e.g. "Grade 5" division "B".
type Class struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`
	Name     string `json:"name"`
	Division string `json:"division"`
}

// ListFilter narrows student listings.
type ListFilter struct {
	SchoolID string
	ClassID  string
	Status   StudentStatus
	// Search matches name, roll number or admission number.
	Search string
	Limit  int
	Offset int
}
