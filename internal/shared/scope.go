package shared

// Role enumerates caller roles recognised by the back office.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
)

// Scope carries the tenant and caller identity for a single request.
// It is resolved once per request and passed explicitly into services so
// no service depends on ambient session state.
type Scope struct {
	SchoolID string
	UserID   string
	Role     Role
}

// Valid reports whether the scope carries a school association.
func (s Scope) Valid() bool {
	return s.SchoolID != ""
}
