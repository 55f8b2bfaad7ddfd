package repository

import (
	"context"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/domain"
)

// Repository defines persistence for audit logs. Entries are append-only.
type Repository interface {
	// GetByID returns (nil, nil) when the entry does not exist.
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	// ListByOrg returns the org's entries newest first.
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
