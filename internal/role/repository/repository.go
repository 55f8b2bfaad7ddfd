package repository

import (
	"context"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
)

// Repository defines persistence for custom roles.
// Getters return (nil, nil) when the row does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.CustomRole, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.CustomRole, error)
	// Create returns an errs.ErrConflict error when the name is taken within the org.
	Create(ctx context.Context, r *domain.CustomRole) error
	// Update returns an errs.ErrConflict error when the new name is taken within the org.
	Update(ctx context.Context, r *domain.CustomRole) error
	// Delete returns an errs.ErrConflict error while any membership references the role.
	Delete(ctx context.Context, id string) error
}
