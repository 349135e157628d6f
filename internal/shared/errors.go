package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSchoolScopeMissing indicates the caller has no school association.
	ErrSchoolScopeMissing = errors.New("caller not associated with a school")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an error to a message safe for display.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrSchoolScopeMissing):
		return "Your account is not associated with a school."
	case errors.Is(err, ErrDuplicate):
		return "A record with the same identifier already exists."
	default:
		return "Something went wrong. Please try again."
	}
}
