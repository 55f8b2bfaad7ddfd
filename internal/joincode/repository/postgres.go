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
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	membershiprepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/repository"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

const columns = `org_id, code, enabled, expires_at, max_members, usage_count, last_regen_at, created_at, updated_at`

var (
	errCodeTaken   = fmt.Errorf("%w: join code already in use", errs.ErrConflict)
	errCodeMissing = fmt.Errorf("%w: join code", errs.ErrNotFound)

	constraintErrors = map[string]error{
		"join_codes_code_key": errCodeTaken,
	}
)

// PostgresRepository implements Repository with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a join code repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByOrg returns the org's join code, or nil if none was issued.
func (r *PostgresRepository) GetByOrg(ctx context.Context, orgID string) (*domain.JoinCode, error) {
	return getOne(ctx, r.pool, `SELECT `+columns+` FROM join_codes WHERE org_id = $1`, orgID)
}

// GetByCode returns the join code with the given value, or nil.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.JoinCode, error) {
	return getOne(ctx, r.pool, `SELECT `+columns+` FROM join_codes WHERE code = $1`, code)
}

// Create inserts c. An existing code for the organization is kept and reported as not created.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.JoinCode) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO join_codes (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (org_id) DO NOTHING`,
		c.OrgID, c.Code, c.Enabled, c.ExpiresAt, c.MaxMembers, c.UsageCount, c.LastRegenAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return false, db.MapError(err, constraintErrors)
	}
	return tag.RowsAffected() == 1, nil
}

// Rotate swaps in a new code when last_regen_at is unchanged since the caller read it,
// so two concurrent regenerations cannot both succeed.
func (r *PostgresRepository) Rotate(ctx context.Context, orgID, code string, prevRegenAt, now time.Time) (*domain.JoinCode, error) {
	c, err := getOne(ctx, r.pool, `
		UPDATE join_codes SET code = $2, usage_count = 0, last_regen_at = $3, updated_at = $3
		WHERE org_id = $1 AND last_regen_at = $4
		RETURNING `+columns, orgID, code, now, prevRegenAt)
	if err != nil {
		return nil, db.MapError(err, constraintErrors)
	}
	if c == nil {
		return nil, domain.ErrStale
	}
	log.Debug().Str("org_id", orgID).Msg("join code rotated")
	return c, nil
}

// UpdateSettings changes only the enabled flag, expiry and member limit. The code and
// usage count are left to Rotate and Join.
func (r *PostgresRepository) UpdateSettings(ctx context.Context, orgID string, p domain.Patch, now time.Time) (*domain.JoinCode, error) {
	var maxMembers *int32
	if p.MaxMembers != nil {
		n := int32(*p.MaxMembers)
		maxMembers = &n
	}
	var expiresAt *time.Time
	if p.ExpiresAt != nil {
		t := p.ExpiresAt.UTC()
		expiresAt = &t
	}
	c, err := getOne(ctx, r.pool, `
		UPDATE join_codes SET
			enabled = COALESCE($2::boolean, enabled),
			expires_at = CASE WHEN $3::boolean THEN NULL ELSE COALESCE($4::timestamptz, expires_at) END,
			max_members = CASE WHEN $5::boolean THEN NULL ELSE COALESCE($6::integer, max_members) END,
			updated_at = $7
		WHERE org_id = $1
		RETURNING `+columns,
		orgID, p.Enabled, p.ClearExpiry, expiresAt, p.ClearMaxMembers, maxMembers, now,
	)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errCodeMissing
	}
	return c, nil
}

// Join admits m through code. The code row stays locked until the membership is written,
// so the member limit holds under concurrent joins.
func (r *PostgresRepository) Join(ctx context.Context, code string, m *membershipdomain.Membership, now time.Time) (*domain.JoinCode, error) {
	var out *domain.JoinCode
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := getOne(ctx, tx, `SELECT `+columns+` FROM join_codes WHERE code = $1 FOR UPDATE`, code)
		if err != nil {
			return err
		}
		if c == nil {
			return errCodeMissing
		}
		var active int64
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM memberships WHERE org_id = $1 AND status = 'active'`, c.OrgID,
		).Scan(&active); err != nil {
			return fmt.Errorf("count active members: %w", err)
		}
		if err := c.Usable(now, active); err != nil {
			return err
		}
		m.OrgID = c.OrgID
		if err := membershiprepo.Insert(ctx, tx, m); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			UPDATE join_codes SET usage_count = usage_count + 1, updated_at = $2
			WHERE org_id = $1
			RETURNING usage_count`, c.OrgID, now,
		).Scan(&c.UsageCount); err != nil {
			return fmt.Errorf("increment join code usage: %w", err)
		}
		c.UpdatedAt = now
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("org_id", out.OrgID).Str("membership_id", m.ID).Msg("membership created from join code")
	return out, nil
}

func getOne(ctx context.Context, q db.Querier, query string, args ...any) (*domain.JoinCode, error) {
	var (
		c          domain.JoinCode
		maxMembers *int32
	)
	err := q.QueryRow(ctx, query, args...).Scan(
		&c.OrgID, &c.Code, &c.Enabled, &c.ExpiresAt, &maxMembers, &c.UsageCount, &c.LastRegenAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get join code: %w", err)
	}
	if maxMembers != nil {
		n := int(*maxMembers)
		c.MaxMembers = &n
	}
	return &c, nil
}
