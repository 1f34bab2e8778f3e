package models

// UserRole is the role carried by an authenticated caller.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// CanManageCourses reports whether the role may edit course content and read
// other learners' results.
func (r UserRole) CanManageCourses() bool {
	return r == RoleTeacher || r == RoleAdmin
}
