package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

// notOwner restricts a write to rows that do not hold Default(OWNER) at the time of the
// write, so a concurrent ownership transfer cannot be undone by a member mutation.
const notOwner = `default_role IS DISTINCT FROM 'OWNER'`

// Columns is the select list matching ScanMembership.
const Columns = `id, user_id, org_id, default_role, custom_role_id, extra_permissions, status,
	invited_by_user_id, joined_at, created_at, updated_at`

var (
	errMembershipExists = fmt.Errorf("%w: user already belongs to an organization", errs.ErrConflict)
	errSecondOwner      = fmt.Errorf("%w: organization already has an owner", errs.ErrOwnerInvariant)
	errMembershipAbsent = fmt.Errorf("%w: membership", errs.ErrNotFound)

	constraintErrors = map[string]error{
		"memberships_user_id_key": errMembershipExists,
		"memberships_one_owner":   errSecondOwner,
	}
)

// PostgresRepository implements Repository with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a membership repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns the membership for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	return r.getOne(ctx, `SELECT `+Columns+` FROM memberships WHERE id = $1`, id)
}

// GetByUser returns the user's membership, or nil if the user belongs to no organization.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	return r.getOne(ctx, `SELECT `+Columns+` FROM memberships WHERE user_id = $1`, userID)
}

// ListByOrg returns the org's memberships ordered by creation time.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM memberships WHERE org_id = $1 ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []*domain.Membership
	for rows.Next() {
		m, err := ScanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return out, nil
}

// Create inserts m.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	if err := Insert(ctx, r.pool, m); err != nil {
		return err
	}
	log.Debug().Str("membership_id", m.ID).Str("org_id", m.OrgID).Str("user_id", m.UserID).Msg("created membership")
	return nil
}

// UpdateRole sets the role reference; the other arm of the union is cleared in the same statement.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role rbac.RoleRef, at time.Time) (*domain.Membership, error) {
	defaultRole, customRoleID := RoleColumns(role)
	return r.updateOne(ctx, id, `
		UPDATE memberships SET default_role = $2, custom_role_id = $3, updated_at = $4
		WHERE id = $1 AND `+notOwner+`
		RETURNING `+Columns, id, defaultRole, customRoleID, at)
}

// SetExtraPermissions replaces the extra permission overlay.
func (r *PostgresRepository) SetExtraPermissions(ctx context.Context, id string, perms rbac.Set, at time.Time) (*domain.Membership, error) {
	return r.updateOne(ctx, id, `
		UPDATE memberships SET extra_permissions = $2, updated_at = $3
		WHERE id = $1 AND `+notOwner+`
		RETURNING `+Columns, id, perms.Strings(), at)
}

// SetStatus changes the status and, when joinedAt is set, records the join time.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.Status, joinedAt *time.Time, at time.Time) (*domain.Membership, error) {
	return r.updateOne(ctx, id, `
		UPDATE memberships SET status = $2, joined_at = COALESCE($3, joined_at), updated_at = $4
		WHERE id = $1 AND `+notOwner+`
		RETURNING `+Columns, id, string(status), joinedAt, at)
}

// Delete removes the membership.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memberships WHERE id = $1 AND `+notOwner, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.untouched(ctx, id)
	}
	log.Debug().Str("membership_id", id).Msg("deleted membership")
	return nil
}

// CountByCustomRole returns how many memberships reference roleID.
func (r *PostgresRepository) CountByCustomRole(ctx context.Context, roleID string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM memberships WHERE custom_role_id = $1`, roleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memberships by role: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Membership, error) {
	m, err := ScanMembership(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *PostgresRepository) updateOne(ctx context.Context, id, query string, args ...any) (*domain.Membership, error) {
	m, err := ScanMembership(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.untouched(ctx, id)
	}
	if err != nil {
		return nil, db.MapError(err, constraintErrors)
	}
	return m, nil
}

// untouched explains why a guarded write matched no row: either the membership is
// gone or it holds the owner role.
func (r *PostgresRepository) untouched(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM memberships WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if exists {
		return domain.ErrOwnerMembership
	}
	return errMembershipAbsent
}

// Insert writes m through q. Used by other repositories inside their transactions.
func Insert(ctx context.Context, q db.Querier, m *domain.Membership) error {
	defaultRole, customRoleID := RoleColumns(m.Role)
	_, err := q.Exec(ctx, `
		INSERT INTO memberships (
			id, user_id, org_id, default_role, custom_role_id, extra_permissions, status,
			invited_by_user_id, joined_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.UserID, m.OrgID, defaultRole, customRoleID, m.ExtraPermissions.Strings(), string(m.Status),
		m.InvitedByUserID, m.JoinedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return db.MapError(err, constraintErrors)
	}
	return nil
}

// RoleColumns splits ref into the default_role and custom_role_id columns. Exactly one is non-nil.
func RoleColumns(ref rbac.RoleRef) (defaultRole, customRoleID *string) {
	if r, ok := ref.Default(); ok {
		s := r.String()
		return &s, nil
	}
	if id, ok := ref.Custom(); ok {
		return nil, &id
	}
	return nil, nil
}

// ScanMembership reads one row selected with Columns.
func ScanMembership(row pgx.Row) (*domain.Membership, error) {
	var (
		m            domain.Membership
		defaultRole  *string
		customRoleID *string
		extra        []string
		status       string
	)
	if err := row.Scan(
		&m.ID, &m.UserID, &m.OrgID, &defaultRole, &customRoleID, &extra, &status,
		&m.InvitedByUserID, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	switch {
	case defaultRole != nil:
		role, err := rbac.ParseDefaultRole(*defaultRole)
		if err != nil {
			return nil, fmt.Errorf("membership %s: %w", m.ID, err)
		}
		m.Role = rbac.DefaultRef(role)
	case customRoleID != nil:
		m.Role = rbac.CustomRef(*customRoleID)
	}
	perms, err := rbac.ParsePermissions(extra)
	if err != nil {
		return nil, fmt.Errorf("membership %s: %w", m.ID, err)
	}
	m.ExtraPermissions = perms
	m.Status = domain.Status(status)
	return &m, nil
}
