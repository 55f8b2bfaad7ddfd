package domain

import (
	"fmt"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

// ErrOwnerMembership is returned by repository writes that would modify or delete the
// owner's membership. Only an ownership transfer may change it.
var ErrOwnerMembership = fmt.Errorf("%w: the owner cannot be modified or removed", errs.ErrOwnerInvariant)

// Membership links a user to the single organization they belong to.
type Membership struct {
	ID               string
	UserID           string
	OrgID            string
	Role             rbac.RoleRef
	ExtraPermissions rbac.Set
	Status           Status
	InvitedByUserID  string
	JoinedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Status is the lifecycle state of a membership.
type Status string

const (
	StatusInvited   Status = "invited"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInvited, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// IsOwner reports whether m holds Default(OWNER).
func (m *Membership) IsOwner() bool {
	return m != nil && m.Role.IsOwner()
}

// IsActive reports whether m may act in its organization.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == StatusActive
}

// Clone returns a deep copy of m.
func (m *Membership) Clone() *Membership {
	if m == nil {
		return nil
	}
	c := *m
	c.ExtraPermissions = m.ExtraPermissions.Clone()
	if m.JoinedAt != nil {
		t := *m.JoinedAt
		c.JoinedAt = &t
	}
	return &c
}
