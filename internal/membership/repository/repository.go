package repository

import (
	"context"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

// Repository defines persistence for memberships.
// Getters return (nil, nil) when the row does not exist.
// UpdateRole, SetExtraPermissions, SetStatus and Delete never touch a row that holds
// Default(OWNER) at write time; they return domain.ErrOwnerMembership instead.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	// GetByUser returns the user's membership. A user has at most one.
	GetByUser(ctx context.Context, userID string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	// Create inserts m. Returns an errs.ErrConflict error when the user already has a membership.
	Create(ctx context.Context, m *domain.Membership) error
	// UpdateRole replaces the role reference. Setting one arm of the union clears the other.
	UpdateRole(ctx context.Context, id string, role rbac.RoleRef, at time.Time) (*domain.Membership, error)
	SetExtraPermissions(ctx context.Context, id string, perms rbac.Set, at time.Time) (*domain.Membership, error)
	SetStatus(ctx context.Context, id string, status domain.Status, joinedAt *time.Time, at time.Time) (*domain.Membership, error)
	Delete(ctx context.Context, id string) error
	CountByCustomRole(ctx context.Context, roleID string) (int64, error)
}
