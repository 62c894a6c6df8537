package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of actor roles.
type Role string

const (
	RoleSubmitter     Role = "submitter"
	RoleDepartment    Role = "department"
	RoleAdministrator Role = "administrator"
)

// ParseRole maps a stored role string onto the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSubmitter:
		return RoleSubmitter, nil
	case RoleDepartment:
		return RoleDepartment, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller of a protected operation. The department
// name is carried only on the Department variant; the constructors keep it
// impossible to build a department actor without one.
type Actor struct {
	AccountID string

	role       Role
	department string
}

// Submitter builds an actor for a regular account.
func Submitter(accountID string) Actor {
	return Actor{AccountID: accountID, role: RoleSubmitter}
}

// Administrator builds an actor with unrestricted access.
func Administrator(accountID string) Actor {
	return Actor{AccountID: accountID, role: RoleAdministrator}
}

// DepartmentActor builds an actor scoped to one department.
func DepartmentActor(accountID, department string) (Actor, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return Actor{}, fmt.Errorf("department actor %s: %w", accountID, ErrAccessDenied)
	}
	return Actor{AccountID: accountID, role: RoleDepartment, department: department}, nil
}

// Role returns the actor's role.
func (a Actor) Role() Role { return a.role }

// Department returns the resolved department name for department actors.
func (a Actor) Department() (string, bool) {
	if a.role != RoleDepartment || a.department == "" {
		return "", false
	}
	return a.department, true
}
