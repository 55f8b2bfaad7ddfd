package rbac

import (
	"fmt"
	"slices"
	"strings"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// Permission is one grantable kind from the closed catalog.
type Permission string

const (
	PermEditCompany         Permission = "EDIT_COMPANY"
	PermDeleteCompany       Permission = "DELETE_COMPANY"
	PermTransferOwnership   Permission = "TRANSFER_OWNERSHIP"
	PermInviteMembers       Permission = "INVITE_MEMBERS"
	PermRemoveMembers       Permission = "REMOVE_MEMBERS"
	PermChangeRoles         Permission = "CHANGE_ROLES"
	PermDelegatePermissions Permission = "DELEGATE_PERMISSIONS"
	PermCreateRoles         Permission = "CREATE_ROLES"
	PermEditRoles           Permission = "EDIT_ROLES"
	PermDeleteRoles         Permission = "DELETE_ROLES"
	PermViewInternships     Permission = "VIEW_INTERNSHIPS"
	PermCreateInternships   Permission = "CREATE_INTERNSHIPS"
	PermEditInternships     Permission = "EDIT_INTERNSHIPS"
	PermDeleteInternships   Permission = "DELETE_INTERNSHIPS"
	PermViewApplications    Permission = "VIEW_APPLICATIONS"
	PermManageApplications  Permission = "MANAGE_APPLICATIONS"
	PermViewCandidates      Permission = "VIEW_CANDIDATES"
	PermSearchCandidates    Permission = "SEARCH_CANDIDATES"
	PermScheduleInterviews  Permission = "SCHEDULE_INTERVIEWS"
	PermConductInterviews   Permission = "CONDUCT_INTERVIEWS"
	PermSendMessages        Permission = "SEND_MESSAGES"
	PermViewMessages        Permission = "VIEW_MESSAGES"
	PermCreateAssignments   Permission = "CREATE_ASSIGNMENTS"
	PermGradeAssignments    Permission = "GRADE_ASSIGNMENTS"
	PermViewAnalytics       Permission = "VIEW_ANALYTICS"
)

// catalog lists every permission in display order.
var catalog = []Permission{
	PermEditCompany,
	PermDeleteCompany,
	PermTransferOwnership,
	PermInviteMembers,
	PermRemoveMembers,
	PermChangeRoles,
	PermDelegatePermissions,
	PermCreateRoles,
	PermEditRoles,
	PermDeleteRoles,
	PermViewInternships,
	PermCreateInternships,
	PermEditInternships,
	PermDeleteInternships,
	PermViewApplications,
	PermManageApplications,
	PermViewCandidates,
	PermSearchCandidates,
	PermScheduleInterviews,
	PermConductInterviews,
	PermSendMessages,
	PermViewMessages,
	PermCreateAssignments,
	PermGradeAssignments,
	PermViewAnalytics,
}

// ownerReserved can only ever belong to the OWNER default role.
var ownerReserved = NewSet(PermDeleteCompany, PermTransferOwnership)

// ErrUnknownPermission is returned when parsing a name outside the catalog.
var ErrUnknownPermission = fmt.Errorf("%w: unknown permission", errs.ErrValidation)

// ErrReservedPermission is returned when an owner-reserved permission is requested for delegation.
var ErrReservedPermission = fmt.Errorf("%w: owner-reserved permission cannot be delegated", errs.ErrValidation)

// Catalog returns a copy of the full permission catalog.
func Catalog() []Permission {
	return slices.Clone(catalog)
}

// OwnerReserved returns the owner-reserved permissions.
func OwnerReserved() Set {
	return ownerReserved.Clone()
}

// Valid reports whether p belongs to the catalog.
func (p Permission) Valid() bool {
	return slices.Contains(catalog, p)
}

// IsOwnerReserved reports whether p can only be held by the owner.
func (p Permission) IsOwnerReserved() bool {
	return ownerReserved.Has(p)
}

// ParsePermission parses a catalog name. Matching is case-insensitive.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// ParsePermissions parses names into a set, failing on the first unknown one.
func ParsePermissions(names []string) (Set, error) {
	out := make(Set, len(names))
	for _, n := range names {
		p, err := ParsePermission(n)
		if err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, nil
}

// Set is an unordered set of permissions.
type Set map[Permission]struct{}

// NewSet returns a set holding perms.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is in s. A nil set holds nothing.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Union returns a new set with every element of s and o.
func (s Set) Union(o Set) Set {
	out := s.Clone()
	for p := range o {
		out[p] = struct{}{}
	}
	return out
}

// Without returns a new set with the elements of o removed.
func (s Set) Without(o Set) Set {
	out := make(Set, len(s))
	for p := range s {
		if !o.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether s and o share an element.
func (s Set) Intersects(o Set) bool {
	for p := range s {
		if o.Has(p) {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every element of s is in o.
func (s Set) SubsetOf(o Set) bool {
	for p := range s {
		if !o.Has(p) {
			return false
		}
	}
	return true
}

// Slice returns the elements in catalog order.
func (s Set) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range catalog {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Strings returns the element names in catalog order. Used for storage and transport.
func (s Set) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
