package repository

import (
	"context"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
)

// Repository defines persistence for join codes.
// Getters return (nil, nil) when the row does not exist.
type Repository interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.JoinCode, error)
	GetByCode(ctx context.Context, code string) (*domain.JoinCode, error)
	// Create stores c unless the organization already has a code, and reports whether
	// it did. Returns an errs.ErrConflict error when c.Code belongs to another organization.
	Create(ctx context.Context, c *domain.JoinCode) (bool, error)
	// Rotate replaces the org's code and restarts its usage count, provided the stored
	// last regeneration time still equals prevRegenAt. Otherwise it returns domain.ErrStale.
	Rotate(ctx context.Context, orgID, code string, prevRegenAt, now time.Time) (*domain.JoinCode, error)
	// UpdateSettings applies p to the enabled flag, expiry and member limit only.
	UpdateSettings(ctx context.Context, orgID string, p domain.Patch, now time.Time) (*domain.JoinCode, error)
	// Join checks the code is usable at now, inserts m and increments the usage count
	// in one transaction.
	Join(ctx context.Context, code string, m *membershipdomain.Membership, now time.Time) (*domain.JoinCode, error)
}
