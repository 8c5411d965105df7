// Package policy decides whether an acting credential may perform an operation.
//
// Rules are evaluated in a fixed order:
//  1. superusers pass superuser-, staff- and ownership-gated checks
//  2. staff pass staff-gated checks
//  3. role-gated checks require an exact role id match
//  4. ownership checks require the actor to be the owner
//  5. hierarchy checks require the organization role; a superuser without a
//     role is pointed at the admin API instead
//
// Anything else is denied.
package policy

import (
	"fmt"
	"strings"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
)

type kind int

const (
	kindSuperuser kind = iota
	kindStaff
	kindRole
	kindOwner
	kindOrganization
	kindAny
)

// Requirement is a capability an operation demands of its actor.
type Requirement struct {
	kind  kind
	id    uint
	anyOf []Requirement
}

// Superuser requires is_superuser.
func Superuser() Requirement { return Requirement{kind: kindSuperuser} }

// Staff requires is_staff; superusers also pass.
func Staff() Requirement { return Requirement{kind: kindStaff} }

// Role requires an exact role id. Superusers get no bypass.
func Role(id uint) Requirement { return Requirement{kind: kindRole, id: id} }

// Owner requires actor.ID == ownerID; superusers also pass.
func Owner(ownerID uint) Requirement { return Requirement{kind: kindOwner, id: ownerID} }

// Organization gates the sub-user hierarchy.
func Organization() Requirement { return Requirement{kind: kindOrganization} }

// Any passes when at least one of reqs passes.
func Any(reqs ...Requirement) Requirement { return Requirement{kind: kindAny, anyOf: reqs} }

func (r Requirement) String() string {
	switch r.kind {
	case kindSuperuser:
		return "superuser"
	case kindStaff:
		return "staff"
	case kindRole:
		return fmt.Sprintf("role %d", r.id)
	case kindOwner:
		return "ownership"
	case kindOrganization:
		return "organization role"
	case kindAny:
		parts := make([]string, 0, len(r.anyOf))
		for _, sub := range r.anyOf {
			parts = append(parts, sub.String())
		}
		return strings.Join(parts, " or ")
	}
	return "unknown"
}

// Decision is the outcome of a check. Err is nil when Allowed.
type Decision struct {
	Allowed bool
	Err     error
}

func allow() Decision { return Decision{Allowed: true} }

func deny(err error) Decision { return Decision{Err: err} }

type Policy struct{}

func New() *Policy {
	return &Policy{}
}

// Check evaluates req for actor. A nil actor is unauthenticated.
func (p *Policy) Check(actor *models.Credential, req Requirement) Decision {
	if actor == nil {
		return deny(apperrors.ErrUnauthenticated)
	}

	switch req.kind {
	case kindSuperuser:
		if actor.IsSuperuser {
			return allow()
		}
	case kindStaff:
		if actor.IsSuperuser || actor.IsStaff {
			return allow()
		}
	case kindRole:
		if actor.HasRole(req.id) {
			return allow()
		}
	case kindOwner:
		if actor.IsSuperuser || actor.ID == req.id {
			return allow()
		}
	case kindOrganization:
		if actor.HasRole(models.RoleOrganization) {
			return allow()
		}
		if actor.IsSuperuser && actor.RoleID == nil {
			return deny(apperrors.ErrUseAdminAPI)
		}
	case kindAny:
		for _, sub := range req.anyOf {
			if p.Check(actor, sub).Allowed {
				return allow()
			}
		}
	}

	return deny(apperrors.ErrForbidden.WithMessage("insufficient permissions: requires " + req.String()))
}

// Enforce returns the denial error of Check, or nil.
func (p *Policy) Enforce(actor *models.Credential, req Requirement) error {
	return p.Check(actor, req).Err
}
