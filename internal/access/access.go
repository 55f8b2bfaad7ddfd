// Package access resolves the acting member of a request and answers the
// permission and hierarchy questions every mutating operation asks first.
package access

import (
	"context"
	"fmt"

	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	roledomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
)

var (
	// ErrNotMember is returned when the caller belongs to no organization.
	ErrNotMember = fmt.Errorf("%w: not a member of an organization", errs.ErrPermissionDenied)
	// ErrOutranked is returned when the hierarchy guard rejects a mutation.
	ErrOutranked = fmt.Errorf("%w: cannot manage a member of equal or higher rank", errs.ErrPermissionDenied)
	// ErrMembershipNotFound is returned when a target membership is absent or in another organization.
	ErrMembershipNotFound = fmt.Errorf("%w: membership", errs.ErrNotFound)
)

// MembershipGetter is the minimal membership repository needed to resolve actors.
type MembershipGetter interface {
	GetByID(ctx context.Context, id string) (*membershipdomain.Membership, error)
	GetByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error)
}

// RoleGetter is the minimal custom role repository needed to resolve permissions.
type RoleGetter interface {
	GetByID(ctx context.Context, id string) (*roledomain.CustomRole, error)
}

// Actor is the member performing an operation together with what they may do.
type Actor struct {
	Membership  *membershipdomain.Membership
	Permissions rbac.Set
	Rank        rbac.Rank
}

// UserID returns the acting user's id.
func (a *Actor) UserID() string { return a.Membership.UserID }

// OrgID returns the acting member's organization id.
func (a *Actor) OrgID() string { return a.Membership.OrgID }

// Require fails with a permission error unless the actor holds p.
func (a *Actor) Require(p rbac.Permission) error {
	if !a.Permissions.Has(p) {
		return fmt.Errorf("%w: missing %s", errs.ErrPermissionDenied, p)
	}
	return nil
}

// Resolver loads memberships and computes effective permissions.
type Resolver struct {
	memberships MembershipGetter
	roles       RoleGetter
	hierarchy   rbac.Hierarchy
}

// NewResolver returns a Resolver ranking custom roles through h.
func NewResolver(memberships MembershipGetter, roles RoleGetter, h rbac.Hierarchy) *Resolver {
	return &Resolver{memberships: memberships, roles: roles, hierarchy: h}
}

// Hierarchy returns the guard used for rank comparisons.
func (r *Resolver) Hierarchy() rbac.Hierarchy { return r.hierarchy }

// Effective returns m's effective permission set from its role and extra permissions.
func (r *Resolver) Effective(ctx context.Context, m *membershipdomain.Membership) (rbac.Set, error) {
	var custom rbac.Set
	if id, ok := m.Role.Custom(); ok {
		role, err := r.roles.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if role != nil && role.OrgID == m.OrgID {
			custom = role.Permissions
		}
	}
	return rbac.Resolve(m.Role, custom, m.ExtraPermissions), nil
}

// Acting returns the permissions m can exercise right now: its effective set when
// active, nothing while invited or suspended.
func (r *Resolver) Acting(ctx context.Context, m *membershipdomain.Membership) (rbac.Set, error) {
	if !m.IsActive() {
		return rbac.Set{}, nil
	}
	return r.Effective(ctx, m)
}

// Actor loads the caller's membership. Members that are not active act with no permissions.
func (r *Resolver) Actor(ctx context.Context, userID string) (*Actor, error) {
	if userID == "" {
		return nil, errs.ErrUnauthorized
	}
	m, err := r.memberships.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	perms, err := r.Acting(ctx, m)
	if err != nil {
		return nil, err
	}
	return &Actor{Membership: m, Permissions: perms, Rank: r.hierarchy.RankOf(m.Role)}, nil
}

// ActiveActor is Actor but rejects members who are not active.
func (r *Resolver) ActiveActor(ctx context.Context, userID string) (*Actor, error) {
	a, err := r.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.Membership.IsActive() {
		return nil, fmt.Errorf("%w: membership is %s", errs.ErrPermissionDenied, a.Membership.Status)
	}
	return a, nil
}

// Target loads a membership in the actor's organization.
// Memberships of other organizations are reported as not found.
func (r *Resolver) Target(ctx context.Context, a *Actor, membershipID string) (*membershipdomain.Membership, error) {
	if membershipID == "" {
		return nil, fmt.Errorf("%w: membership id is required", errs.ErrValidation)
	}
	m, err := r.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.OrgID != a.OrgID() {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

// RequireManage fails unless the actor strictly outranks ref.
func (r *Resolver) RequireManage(a *Actor, ref rbac.RoleRef) error {
	if !rbac.CanManage(a.Rank, r.hierarchy.RankOf(ref)) {
		return ErrOutranked
	}
	return nil
}
