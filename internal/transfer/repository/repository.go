package repository

import (
	"context"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
)

// Repository defines persistence for ownership transfer requests.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	// GetOpenByOrg returns the org's request in a pending state, expired or not, or (nil, nil).
	GetOpenByOrg(ctx context.Context, orgID string) (*domain.Request, error)
	// CreatePending marks any stale pending request of the org expired and inserts r,
	// serialized per organization. Returns an errs.ErrConflict error while a live request exists.
	CreatePending(ctx context.Context, r *domain.Request, now time.Time) error
	// Transition persists r's new state when the stored state still equals from.
	// Returns an errs.ErrInvalidState error when it does not.
	Transition(ctx context.Context, r *domain.Request, from domain.State) error
	// RecordFailedAttempt increments the failed code counter and returns the new count.
	RecordFailedAttempt(ctx context.Context, id string) (int, error)
	// Complete atomically demotes the old owner to ADMIN, promotes the target to OWNER
	// (clearing custom role and extra permissions), moves the org's owner pointer and
	// marks the request completed. The request must still be first_confirmed and
	// unexpired at now; otherwise nothing changes and an errs.ErrInvalidState error is returned.
	Complete(ctx context.Context, id string, now time.Time) (*domain.Request, error)
	// ExpireStale marks every pending request whose deadline passed as expired.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
