package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
)

// PostgresRepository implements Repository with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an organization repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetOrganizationByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	var o domain.Org
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_user_id, created_at, updated_at
		FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.OwnerUserID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// CreateOrganization persists o. The owner's membership is created separately.
func (r *PostgresRepository) CreateOrganization(ctx context.Context, o *domain.Org) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO organizations (id, name, owner_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, o.OwnerUserID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return db.MapError(err, nil)
	}
	log.Debug().Str("org_id", o.ID).Str("name", o.Name).Msg("created organization")
	return nil
}
