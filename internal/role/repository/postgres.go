package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
)

const columns = `id, org_id, name, description, permissions, color, created_by_user_id, created_at, updated_at`

var (
	errNameTaken = fmt.Errorf("%w: role name already exists in organization", errs.ErrConflict)
	errInUse     = fmt.Errorf("%w: role is still assigned to members", errs.ErrConflict)
	errMissing   = fmt.Errorf("%w: role", errs.ErrNotFound)

	constraintErrors = map[string]error{
		"custom_roles_org_name_key":       errNameTaken,
		"memberships_custom_role_id_fkey": errInUse,
		"custom_roles_no_reserved":        rbac.ErrReservedPermission,
	}
)

// PostgresRepository implements Repository with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a custom role repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns the role for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.CustomRole, error) {
	role, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM custom_roles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get custom role: %w", err)
	}
	return role, nil
}

// ListByOrg returns the org's roles ordered by name.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.CustomRole, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM custom_roles WHERE org_id = $1 ORDER BY name, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list custom roles: %w", err)
	}
	defer rows.Close()

	var out []*domain.CustomRole
	for rows.Next() {
		role, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// Create inserts role.
func (r *PostgresRepository) Create(ctx context.Context, role *domain.CustomRole) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO custom_roles (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		role.ID, role.OrgID, role.Name, role.Description, role.Permissions.Strings(), role.Color,
		role.CreatedByUserID, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return db.MapError(err, constraintErrors)
	}
	log.Debug().Str("role_id", role.ID).Str("org_id", role.OrgID).Msg("created custom role")
	return nil
}

// Update replaces the mutable fields of role.
func (r *PostgresRepository) Update(ctx context.Context, role *domain.CustomRole) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE custom_roles SET name = $2, description = $3, permissions = $4, color = $5, updated_at = $6
		WHERE id = $1`,
		role.ID, role.Name, role.Description, role.Permissions.Strings(), role.Color, role.UpdatedAt,
	)
	if err != nil {
		return db.MapError(err, constraintErrors)
	}
	if tag.RowsAffected() == 0 {
		return errMissing
	}
	return nil
}

// Delete removes the role. The memberships foreign key rejects deleting a role that is still assigned.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM custom_roles WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, constraintErrors)
	}
	if tag.RowsAffected() == 0 {
		return errMissing
	}
	log.Debug().Str("role_id", id).Msg("deleted custom role")
	return nil
}

func scan(row pgx.Row) (*domain.CustomRole, error) {
	var (
		role  domain.CustomRole
		perms []string
	)
	if err := row.Scan(&role.ID, &role.OrgID, &role.Name, &role.Description, &perms, &role.Color,
		&role.CreatedByUserID, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	set, err := rbac.ParsePermissions(perms)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", role.ID, err)
	}
	role.Permissions = set
	return &role, nil
}
