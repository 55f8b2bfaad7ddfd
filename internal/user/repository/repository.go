package repository

import (
	"context"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

// Repository defines persistence for the user directory.
// Getters return (nil, nil) when the user does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
