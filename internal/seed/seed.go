// Package seed creates users, organizations and memberships through the repository
// interfaces. cmd/seed uses it against Postgres; service tests use it against the
// in-memory store.
package seed

import (
	"context"
	"time"

	"github.com/google/uuid"

	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	orgdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	userdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

// UserCreator persists directory users.
type UserCreator interface {
	Create(ctx context.Context, u *userdomain.User) error
}

// OrgCreator persists organizations.
type OrgCreator interface {
	CreateOrganization(ctx context.Context, o *orgdomain.Org) error
}

// MembershipCreator persists memberships.
type MembershipCreator interface {
	Create(ctx context.Context, m *membershipdomain.Membership) error
}

// Directory builds consistent fixtures. Now defaults to time.Now in UTC.
type Directory struct {
	Users       UserCreator
	Orgs        OrgCreator
	Memberships MembershipCreator
	Now         func() time.Time
}

func (d *Directory) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// User creates a directory user. An empty id gets a random one.
func (d *Directory) User(ctx context.Context, id, name, email string) (*userdomain.User, error) {
	if id == "" {
		id = uuid.New().String()
	}
	now := d.now()
	u := &userdomain.User{ID: id, Email: email, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := d.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Organization creates an organization owned by owner, together with the owner's
// active Default(OWNER) membership.
func (d *Directory) Organization(ctx context.Context, id, name string, owner *userdomain.User) (*orgdomain.Org, *membershipdomain.Membership, error) {
	if id == "" {
		id = uuid.New().String()
	}
	now := d.now()
	o := &orgdomain.Org{ID: id, Name: name, OwnerUserID: owner.ID, CreatedAt: now, UpdatedAt: now}
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	if err := d.Orgs.CreateOrganization(ctx, o); err != nil {
		return nil, nil, err
	}
	m, err := d.Member(ctx, o.ID, owner, rbac.DefaultRef(rbac.RoleOwner), membershipdomain.StatusActive)
	if err != nil {
		return nil, nil, err
	}
	return o, m, nil
}

// Member adds u to orgID with role and status.
func (d *Directory) Member(ctx context.Context, orgID string, u *userdomain.User, role rbac.RoleRef, status membershipdomain.Status) (*membershipdomain.Membership, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}
	now := d.now()
	m := &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		OrgID:     orgID,
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == membershipdomain.StatusActive {
		m.JoinedAt = &now
	}
	if err := d.Memberships.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
