package user

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"
)

// Role is the single role a user holds. It is set by an administrator and never changes afterwards.
type Role string

const (
	RoleTeacher   Role = "teacher"
	RoleStudent   Role = "student"
	RoleLibrarian Role = "librarian"
)

// Roles lists every known role, in display order.
var Roles = []Role{RoleTeacher, RoleStudent, RoleLibrarian}

var ErrInvalidRole = errors.New("invalid role")

// Capability names an action a protected route performs.
type Capability string

const (
	CapTeacherDashboard   Capability = "teacher:dashboard"
	CapTeacherAttendance  Capability = "teacher:attendance"
	CapTeacherAssignments Capability = "teacher:assignments"
	CapStudentView        Capability = "student:view"
	CapLibrarianDashboard Capability = "librarian:dashboard"
	CapLibrarianMarks     Capability = "librarian:marks"
)

// RoleCapabilities is the access table: each capability belongs to exactly one role.
var RoleCapabilities = map[Role][]Capability{
	RoleTeacher:   {CapTeacherDashboard, CapTeacherAttendance, CapTeacherAssignments},
	RoleStudent:   {CapStudentView},
	RoleLibrarian: {CapLibrarianDashboard, CapLibrarianMarks},
}

var homePaths = map[Role]string{
	RoleTeacher:   "/teacher/dashboard",
	RoleStudent:   "/student/view",
	RoleLibrarian: "/librarian/dashboard",
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", errors.Wrapf(ErrInvalidRole, "%q", s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	_, ok := RoleCapabilities[r]
	return ok
}

func (r Role) String() string { return string(r) }

func (r Role) DisplayName() string {
	return strmangle.TitleCase(string(r))
}

// Can reports whether r holds capability c.
func (r Role) Can(c Capability) bool {
	for _, have := range RoleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// HomePath is the dashboard a user with this role lands on.
func (r Role) HomePath() (string, error) {
	path, ok := homePaths[r]
	if !ok {
		return "", errors.Wrapf(ErrInvalidRole, "%q", string(r))
	}
	return path, nil
}

func RouteByRole(r Role) (string, error) {
	return r.HomePath()
}

// Owner returns the role holding c.
func (c Capability) Owner() (Role, bool) {
	for role, caps := range RoleCapabilities {
		for _, have := range caps {
			if have == c {
				return role, true
			}
		}
	}
	return "", false
}
