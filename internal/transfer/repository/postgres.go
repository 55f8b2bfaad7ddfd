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
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	membershiprepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/repository"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
)

const columns = `id, org_id, from_user_id, to_user_id, to_membership_id, code_hash, state, failed_attempts,
	created_at, expires_at, first_confirmed_at, completed_at, cancelled_at`

var (
	errPending = fmt.Errorf("%w: ownership transfer already pending", errs.ErrConflict)
	errMissing = fmt.Errorf("%w: transfer request", errs.ErrNotFound)
	errState   = fmt.Errorf("%w: transfer request changed state", errs.ErrInvalidState)

	constraintErrors = map[string]error{
		"transfer_one_pending_per_org": errPending,
	}
)

// PostgresRepository implements Repository with pgx. Multi-row changes run in one transaction
// and lock the organization row first so concurrent requests for the same org serialize.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a transfer repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns the request for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	return getOne(ctx, r.pool, `SELECT `+columns+` FROM ownership_transfer_requests WHERE id = $1`, id)
}

// GetOpenByOrg returns the org's pending request, or nil.
func (r *PostgresRepository) GetOpenByOrg(ctx context.Context, orgID string) (*domain.Request, error) {
	return getOne(ctx, r.pool, `
		SELECT `+columns+` FROM ownership_transfer_requests
		WHERE org_id = $1 AND state IN ('initiated', 'first_confirmed')`, orgID)
}

// CreatePending expires a stale pending request of the org, if any, and inserts req.
func (r *PostgresRepository) CreatePending(ctx context.Context, req *domain.Request, now time.Time) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockOrg(ctx, tx, req.OrgID); err != nil {
			return err
		}
		open, err := getOne(ctx, tx, `
			SELECT `+columns+` FROM ownership_transfer_requests
			WHERE org_id = $1 AND state IN ('initiated', 'first_confirmed')
			FOR UPDATE`, req.OrgID)
		if err != nil {
			return err
		}
		if open != nil {
			if open.PendingAt(now) {
				return errPending
			}
			if _, err := tx.Exec(ctx, `UPDATE ownership_transfer_requests SET state = 'expired' WHERE id = $1`, open.ID); err != nil {
				return fmt.Errorf("expire transfer request: %w", err)
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO ownership_transfer_requests (`+columns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			req.ID, req.OrgID, req.FromUserID, req.ToUserID, req.ToMembershipID, req.CodeHash, string(req.State),
			req.FailedAttempts, req.CreatedAt, req.ExpiresAt, req.FirstConfirmedAt, req.CompletedAt, req.CancelledAt,
		)
		if err != nil {
			return db.MapError(err, constraintErrors)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Debug().Str("transfer_id", req.ID).Str("org_id", req.OrgID).Msg("created transfer request")
	return nil
}

// Transition writes req's state and timestamps if the stored state is still from.
func (r *PostgresRepository) Transition(ctx context.Context, req *domain.Request, from domain.State) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ownership_transfer_requests
		SET state = $3, failed_attempts = $4, first_confirmed_at = $5, completed_at = $6, cancelled_at = $7
		WHERE id = $1 AND state = $2`,
		req.ID, string(from), string(req.State), req.FailedAttempts, req.FirstConfirmedAt, req.CompletedAt, req.CancelledAt,
	)
	if err != nil {
		return db.MapError(err, constraintErrors)
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if exists == nil {
			return errMissing
		}
		return errState
	}
	return nil
}

// RecordFailedAttempt increments the failed code counter.
func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, id string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		UPDATE ownership_transfer_requests SET failed_attempts = failed_attempts + 1
		WHERE id = $1
		RETURNING failed_attempts`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errMissing
	}
	if err != nil {
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}
	return n, nil
}

// Complete swaps the owner and marks the request completed in one transaction.
func (r *PostgresRepository) Complete(ctx context.Context, id string, now time.Time) (*domain.Request, error) {
	var done *domain.Request
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		req, err := getOne(ctx, tx, `SELECT `+columns+` FROM ownership_transfer_requests WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if req == nil {
			return errMissing
		}
		var owner string
		err = tx.QueryRow(ctx, `SELECT owner_user_id FROM organizations WHERE id = $1 FOR UPDATE`, req.OrgID).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != req.FromUserID) {
			return errState
		}
		if err != nil {
			return fmt.Errorf("lock organization: %w", err)
		}
		// Re-read under the org lock; a concurrent cancel or completion may have won.
		req, err = getOne(ctx, tx, `SELECT `+columns+` FROM ownership_transfer_requests WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if req.State != domain.StateFirstConfirmed || req.Expired(now) {
			return errState
		}

		rows, err := tx.Query(ctx, `
			SELECT `+membershiprepo.Columns+` FROM memberships
			WHERE org_id = $1 AND (user_id = $2 OR id = $3)
			FOR UPDATE`, req.OrgID, req.FromUserID, req.ToMembershipID)
		if err != nil {
			return fmt.Errorf("lock memberships: %w", err)
		}
		var from, to *membershipdomain.Membership
		for rows.Next() {
			m, err := membershiprepo.ScanMembership(rows)
			if err != nil {
				rows.Close()
				return err
			}
			if m.UserID == req.FromUserID {
				from = m
			}
			if m.ID == req.ToMembershipID {
				to = m
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock memberships: %w", err)
		}
		if from == nil || !from.IsOwner() {
			return errState
		}
		if to == nil || to.UserID != req.ToUserID || to.Status != membershipdomain.StatusActive {
			return errState
		}

		// Demote first so the one-owner index never sees two owners.
		admin, _ := membershiprepo.RoleColumns(rbac.DefaultRef(rbac.RoleAdmin))
		if _, err := tx.Exec(ctx, `
			UPDATE memberships SET default_role = $2, custom_role_id = NULL, updated_at = $3
			WHERE id = $1`, from.ID, admin, now); err != nil {
			return fmt.Errorf("demote owner: %w", err)
		}
		ownerRole, _ := membershiprepo.RoleColumns(rbac.DefaultRef(rbac.RoleOwner))
		if _, err := tx.Exec(ctx, `
			UPDATE memberships SET default_role = $2, custom_role_id = NULL, extra_permissions = '{}', updated_at = $3
			WHERE id = $1`, to.ID, ownerRole, now); err != nil {
			return db.MapError(err, map[string]error{"memberships_one_owner": errState})
		}
		if _, err := tx.Exec(ctx, `
			UPDATE organizations SET owner_user_id = $2, updated_at = $3 WHERE id = $1`,
			req.OrgID, req.ToUserID, now); err != nil {
			return fmt.Errorf("move owner pointer: %w", err)
		}

		next := req.Clone()
		if err := next.Apply(domain.EventConfirmFinal, now); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE ownership_transfer_requests SET state = $2, completed_at = $3 WHERE id = $1`,
			next.ID, string(next.State), next.CompletedAt); err != nil {
			return fmt.Errorf("complete transfer request: %w", err)
		}
		done = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("transfer_id", id).Str("org_id", done.OrgID).Str("new_owner", done.ToUserID).Msg("ownership transferred")
	return done, nil
}

// ExpireStale marks pending requests past their deadline as expired.
func (r *PostgresRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ownership_transfer_requests SET state = 'expired'
		WHERE state IN ('initiated', 'first_confirmed') AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire transfer requests: %w", err)
	}
	return tag.RowsAffected(), nil
}

func lockOrg(ctx context.Context, q db.Querier, orgID string) error {
	var id string
	err := q.QueryRow(ctx, `SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, orgID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: organization", errs.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock organization: %w", err)
	}
	return nil
}

func getOne(ctx context.Context, q db.Querier, query string, args ...any) (*domain.Request, error) {
	var (
		req   domain.Request
		state string
	)
	err := q.QueryRow(ctx, query, args...).Scan(
		&req.ID, &req.OrgID, &req.FromUserID, &req.ToUserID, &req.ToMembershipID, &req.CodeHash, &state,
		&req.FailedAttempts, &req.CreatedAt, &req.ExpiresAt, &req.FirstConfirmedAt, &req.CompletedAt, &req.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer request: %w", err)
	}
	req.State = domain.State(state)
	return &req, nil
}
