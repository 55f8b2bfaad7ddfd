package handler

import (
	"fmt"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

// RoleRef is the wire form of a role reference. Exactly one field is set.
type RoleRef struct {
	Default      string `json:"default,omitempty"`
	CustomRoleID string `json:"custom_role_id,omitempty"`
}

// ToDomain converts the wire form, rejecting refs that name both or neither arm.
func (r *RoleRef) ToDomain() (rbac.RoleRef, error) {
	if r == nil || (r.Default == "") == (r.CustomRoleID == "") {
		return rbac.RoleRef{}, fmt.Errorf("%w: role must name exactly one of default or custom_role_id", errs.ErrValidation)
	}
	if r.CustomRoleID != "" {
		return rbac.CustomRef(r.CustomRoleID), nil
	}
	role, err := rbac.ParseDefaultRole(r.Default)
	if err != nil {
		return rbac.RoleRef{}, err
	}
	return rbac.DefaultRef(role), nil
}

// RoleRefFromDomain converts ref to its wire form.
func RoleRefFromDomain(ref rbac.RoleRef) RoleRef {
	if role, ok := ref.Default(); ok {
		return RoleRef{Default: role.String()}
	}
	if id, ok := ref.Custom(); ok {
		return RoleRef{CustomRoleID: id}
	}
	return RoleRef{}
}

// Membership is the wire form of a membership.
type Membership struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	OrgID            string     `json:"org_id"`
	Role             RoleRef    `json:"role"`
	ExtraPermissions []string   `json:"extra_permissions"`
	Status           string     `json:"status"`
	InvitedByUserID  string     `json:"invited_by_user_id,omitempty"`
	JoinedAt         *time.Time `json:"joined_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	// Permissions is the effective set; only filled by ListMembers.
	Permissions []string `json:"permissions,omitempty"`
}

// MembershipFromDomain converts m to its wire form.
func MembershipFromDomain(m *domain.Membership) *Membership {
	if m == nil {
		return nil
	}
	return &Membership{
		ID:               m.ID,
		UserID:           m.UserID,
		OrgID:            m.OrgID,
		Role:             RoleRefFromDomain(m.Role),
		ExtraPermissions: m.ExtraPermissions.Strings(),
		Status:           string(m.Status),
		InvitedByUserID:  m.InvitedByUserID,
		JoinedAt:         m.JoinedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type ResolvePermissionsRequest struct {
	// MembershipID selects another member of the caller's org; empty means the caller.
	MembershipID string `json:"membership_id,omitempty"`
}

type ResolvePermissionsResponse struct {
	Permissions []string `json:"permissions"`
}

type HasPermissionRequest struct {
	MembershipID string `json:"membership_id,omitempty"`
	Permission   string `json:"permission"`
}

type HasPermissionResponse struct {
	Allowed bool `json:"allowed"`
}

type ListMembersRequest struct{}

type ListMembersResponse struct {
	Members []*Membership `json:"members"`
}

type AssignRoleRequest struct {
	MembershipID string   `json:"membership_id"`
	Role         *RoleRef `json:"role"`
}

type SetExtraPermissionsRequest struct {
	MembershipID string   `json:"membership_id"`
	Permissions  []string `json:"permissions"`
}

type RemoveMemberRequest struct {
	MembershipID string `json:"membership_id"`
}

type LeaveRequest struct{}

type InviteMemberRequest struct {
	UserID string `json:"user_id"`
}

type AcceptInvitationRequest struct{}

type SetMemberStatusRequest struct {
	MembershipID string `json:"membership_id"`
	Status       string `json:"status"`
}

// MembershipResponse wraps a single membership.
type MembershipResponse struct {
	Membership *Membership `json:"membership"`
}

// Empty is returned by calls with no result.
type Empty struct{}
