package models

import "fmt"

// Role is the closed set of membership roles.
type Role string

const (
	RoleSuperAdmin Role = "Super-admin"
	RoleAdmin      Role = "Admin"
	RoleMember     Role = "Member"
)

// Roles lists every role in seeding order.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleMember}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Protected reports whether tenant-management flows may never block or remove the role.
func (r Role) Protected() bool {
	return r == RoleSuperAdmin
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
