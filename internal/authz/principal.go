package authz

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleStaff          Role = "staff"
	RoleLabTechnician  Role = "lab_technician"
	RoleXrayTechnician Role = "xray_technician"
	RoleLocalAdmin     Role = "local_admin"
	RoleUser           Role = "user"
)

// ParseRole normalizes a raw role string. Unknown roles are returned as-is so
// that every predicate evaluates false for them.
func ParseRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// Principal is an authenticated actor. AssignedLab is only meaningful for
// local_admin; staff are lab-unscoped.
type Principal struct {
	ID          uuid.UUID
	Role        Role
	AssignedLab *uuid.UUID
}

func NewPrincipal(id uuid.UUID, role string, assignedLab *uuid.UUID) *Principal {
	return &Principal{
		ID:          id,
		Role:        ParseRole(role),
		AssignedLab: assignedLab,
	}
}

// Authenticated is false for a nil principal or one without an identity.
func (p *Principal) Authenticated() bool {
	return p != nil && p.ID != uuid.Nil
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

func (p *Principal) IsStaff() bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleStaff, RoleLabTechnician, RoleXrayTechnician:
		return true
	}
	return false
}

func (p *Principal) IsUser() bool {
	return p != nil && p.Role == RoleUser
}

// IsLocalAdmin requires both the role and a non-empty lab assignment. A
// local_admin without a lab is no more privileged than a plain user.
func (p *Principal) IsLocalAdmin() bool {
	return p != nil && p.Role == RoleLocalAdmin && p.HasAssignedLab()
}

func (p *Principal) HasAssignedLab() bool {
	return p != nil && p.AssignedLab != nil && *p.AssignedLab != uuid.Nil
}
