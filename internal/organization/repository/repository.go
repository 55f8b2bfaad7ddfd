package repository

import (
	"context"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	// GetOrganizationByID returns (nil, nil) when the organization does not exist.
	GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error)
	CreateOrganization(ctx context.Context, o *domain.Org) error
}
