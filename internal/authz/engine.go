package authz

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Capability string

const (
	CapabilityNone       Capability = "none"
	CapabilityAdmin      Capability = "admin"
	CapabilityStaff      Capability = "staff"
	CapabilityLocalAdmin Capability = "local_admin"
	CapabilityUser       Capability = "user"
)

type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonUnauthenticated       Reason = "unauthenticated"
	ReasonRoleMismatch          Reason = "role_mismatch"
	ReasonResourceScopeMismatch Reason = "resource_scope_mismatch"
)

// Fallback destinations a caller may send a denied principal to.
const (
	FallbackLogin = "/login"
	FallbackHome  = "/"
)

var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrRoleMismatch          = errors.New("role mismatch")
	ErrResourceScopeMismatch = errors.New("resource scope mismatch")
)

// Resource describes what an action touches. Zero fields are not checked.
type Resource struct {
	LabID   uuid.UUID
	OwnerID uuid.UUID
}

type Decision struct {
	Granted  bool
	Reason   Reason
	Fallback string
}

func granted() Decision {
	return Decision{Granted: true}
}

func denied(reason Reason) Decision {
	fallback := FallbackHome
	if reason == ReasonUnauthenticated {
		fallback = FallbackLogin
	}
	return Decision{Reason: reason, Fallback: fallback}
}

// Err converts a denial into an error wrapping the matching sentinel. It
// returns nil for granted decisions.
func (d Decision) Err() error {
	if d.Granted {
		return nil
	}
	return &DenialError{Reason: d.Reason, Fallback: d.Fallback}
}

type DenialError struct {
	Reason   Reason
	Fallback string
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

func (e *DenialError) Unwrap() error {
	switch e.Reason {
	case ReasonUnauthenticated:
		return ErrUnauthenticated
	case ReasonResourceScopeMismatch:
		return ErrResourceScopeMismatch
	default:
		return ErrRoleMismatch
	}
}

// Authorize decides whether p holds capability c over resource. It is a pure
// function of its inputs.
func Authorize(p *Principal, c Capability, resource Resource) Decision {
	if c == CapabilityNone {
		return granted()
	}
	if !p.Authenticated() {
		return denied(ReasonUnauthenticated)
	}

	switch c {
	case CapabilityAdmin:
		if !p.IsAdmin() {
			return denied(ReasonRoleMismatch)
		}
	case CapabilityStaff:
		if !p.IsStaff() {
			return denied(ReasonRoleMismatch)
		}
	case CapabilityLocalAdmin:
		// no distinction between "local_admin without a lab" and any other role
		if !p.IsLocalAdmin() {
			return denied(ReasonRoleMismatch)
		}
		if resource.LabID != uuid.Nil && resource.LabID != *p.AssignedLab {
			return denied(ReasonResourceScopeMismatch)
		}
	case CapabilityUser:
		if !p.IsUser() {
			return denied(ReasonRoleMismatch)
		}
		if resource.OwnerID != uuid.Nil && resource.OwnerID != p.ID {
			return denied(ReasonResourceScopeMismatch)
		}
	default:
		return denied(ReasonRoleMismatch)
	}

	return granted()
}

// OperatorCapability picks the capability a booking operator acts under:
// admins as admin, the staff family as staff, and local admins as
// local_admin (lab-scoped). Anyone else is checked against staff and fails.
func OperatorCapability(p *Principal) Capability {
	switch {
	case p.IsAdmin():
		return CapabilityAdmin
	case p.IsStaff():
		return CapabilityStaff
	case p != nil && p.Role == RoleLocalAdmin:
		return CapabilityLocalAdmin
	default:
		return CapabilityStaff
	}
}

// AuthorizeOperator grants staff-or-above access to resource, scoping local
// admins to their assigned lab.
func AuthorizeOperator(p *Principal, resource Resource) Decision {
	return Authorize(p, OperatorCapability(p), resource)
}

// AuthorizeReader grants access to the resource owner or to any operator that
// may act on it.
func AuthorizeReader(p *Principal, resource Resource) Decision {
	if p.IsUser() {
		return Authorize(p, CapabilityUser, resource)
	}
	return AuthorizeOperator(p, resource)
}
