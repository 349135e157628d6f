package lms

import "time"

// Course is a published or draft LMS course.
type Course struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	TeacherID   string `json:"teacher_id"`

	// TargetAudience limits who may enrol: student, teacher or both.
	TargetAudience string `json:"target_audience"`

	Published bool `json:"published"`

	ResourceCount   int `json:"resource_count,omitempty"`
	EnrollmentCount int `json:"enrollment_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceKind distinguishes course material types.
type ResourceKind string

const (
	ResourceNote    ResourceKind = "note"
	ResourceVideo   ResourceKind = "video"
	ResourceEbook   ResourceKind = "ebook"
	ResourceWebinar ResourceKind = "webinar"
)

// Resource is one piece of course material. Uploaded files carry an
// ObjectKey; external material carries a URL.
type Resource struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`

	Title     string       `json:"title"`
	Kind      ResourceKind `json:"kind"`
	URL       string       `json:"url,omitempty"`
	ObjectKey string       `json:"object_key,omitempty"`

	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Audience values for courses and enrollments.
const (
	AudienceStudent = "student"
	AudienceTeacher = "teacher"
	AudienceBoth    = "both"
)

// Enrollment links a student or teacher to a course.
type Enrollment struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`

	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`

	UserName string `json:"user_name,omitempty"`

	// Progress is a 0..100 completion percentage.
	Progress   int       `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
