package shared

import "strings"

// Role identifies the kind of actor performing an operation. Role resolution
// itself (token validation, session lookup) happens in an external layer;
// this package only consumes the result.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
	RoleCoach   Role = "COACH"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole coerces a case-insensitive role name into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STUDENT":
		return RoleStudent, nil
	case "PARENT":
		return RoleParent, nil
	case "COACH":
		return RoleCoach, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return "", NewDomainError("actor", "ParseRole", ErrInvalidInput, "unknown role: "+s)
	}
}

// IsStaff reports whether the role may act on any student's records.
func (r Role) IsStaff() bool {
	return r == RoleCoach || r == RoleAdmin
}

// ActorContext describes who is performing an operation. It is produced by
// the external authentication layer and treated as opaque truth here.
type ActorContext struct {
	Role      Role
	ActorID   string
	StudentID string // student the actor is bound to (self or child), empty for staff
}

// EnsureAccess rejects actors that may not touch the given student's records.
// Staff roles pass unconditionally; students and parents only reach the
// student they are bound to. Authorization is re-checked per item in batch
// operations because a batch may span multiple students.
func EnsureAccess(actor ActorContext, studentID string) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.StudentID != "" && actor.StudentID == studentID {
		return nil
	}
	return NewDomainError("actor", "EnsureAccess", ErrForbidden, "actor may not access this student")
}
