package memory

import (
	"context"
	"time"

	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
)

// TransferRepository implements the ownership transfer repository.
type TransferRepository struct{ s *Store }

func (r *TransferRepository) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.transfers[id].Clone(), nil
}

func (r *TransferRepository) GetOpenByOrg(_ context.Context, orgID string) (*domain.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.openTransfer(orgID).Clone(), nil
}

func (r *TransferRepository) CreatePending(_ context.Context, req *domain.Request, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if open := r.s.openTransfer(req.OrgID); open != nil {
		if open.PendingAt(now) {
			return errTransferPending
		}
		open.State = domain.StateExpired
	}
	r.s.transfers[req.ID] = req.Clone()
	return nil
}

func (r *TransferRepository) Transition(_ context.Context, req *domain.Request, from domain.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.transfers[req.ID]
	if !ok {
		return errTransferMissing
	}
	if cur.State != from {
		return errTransferState
	}
	r.s.transfers[req.ID] = req.Clone()
	return nil
}

func (r *TransferRepository) RecordFailedAttempt(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.transfers[id]
	if !ok {
		return 0, errTransferMissing
	}
	cur.FailedAttempts++
	return cur.FailedAttempts, nil
}

func (r *TransferRepository) Complete(_ context.Context, id string, now time.Time) (*domain.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.transfers[id]
	if !ok {
		return nil, errTransferMissing
	}
	if req.State != domain.StateFirstConfirmed || req.Expired(now) {
		return nil, errTransferState
	}
	org, ok := r.s.orgs[req.OrgID]
	if !ok || org.OwnerUserID != req.FromUserID {
		return nil, errTransferState
	}
	from := r.s.memberships[r.s.byUser[req.FromUserID]]
	to := r.s.memberships[req.ToMembershipID]
	if from == nil || !from.IsOwner() || from.OrgID != req.OrgID {
		return nil, errTransferState
	}
	if to == nil || to.OrgID != req.OrgID || to.UserID != req.ToUserID || to.Status != membershipdomain.StatusActive {
		return nil, errTransferState
	}

	next := req.Clone()
	if err := next.Apply(domain.EventConfirmFinal, now); err != nil {
		return nil, err
	}
	from.Role = rbac.DefaultRef(rbac.RoleAdmin)
	from.UpdatedAt = now
	to.Role = rbac.DefaultRef(rbac.RoleOwner)
	to.ExtraPermissions = nil
	to.UpdatedAt = now
	org.OwnerUserID = req.ToUserID
	org.UpdatedAt = now
	r.s.transfers[id] = next
	return next.Clone(), nil
}

func (r *TransferRepository) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, req := range r.s.transfers {
		if req.State.Pending() && req.Expired(now) {
			req.State = domain.StateExpired
			n++
		}
	}
	return n, nil
}

func (s *Store) openTransfer(orgID string) *domain.Request {
	for _, req := range s.transfers {
		if req.OrgID == orgID && req.State.Pending() {
			return req
		}
	}
	return nil
}
