package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

// MembershipRepository implements the membership repository.
type MembershipRepository struct{ s *Store }

func (r *MembershipRepository) GetByID(_ context.Context, id string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.memberships[id].Clone(), nil
}

func (r *MembershipRepository) GetByUser(_ context.Context, userID string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byUser[userID]
	if !ok {
		return nil, nil
	}
	return r.s.memberships[id].Clone(), nil
}

// ListByOrg returns the org's memberships ordered by creation time.
func (r *MembershipRepository) ListByOrg(_ context.Context, orgID string) ([]*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Membership
	for _, m := range r.s.memberships {
		if m.OrgID == orgID {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MembershipRepository) Create(_ context.Context, m *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertMembership(m)
}

func (r *MembershipRepository) UpdateRole(_ context.Context, id string, role rbac.RoleRef, at time.Time) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, errMembershipMissing
	}
	if m.IsOwner() {
		return nil, domain.ErrOwnerMembership
	}
	if role.IsOwner() && r.s.ownerOf(m.OrgID) != nil {
		return nil, errSecondOwner
	}
	m.Role = role
	m.UpdatedAt = at
	return m.Clone(), nil
}

func (r *MembershipRepository) SetExtraPermissions(_ context.Context, id string, perms rbac.Set, at time.Time) (*domain.Membership, error) {
	return r.update(id, func(m *domain.Membership) {
		m.ExtraPermissions = perms.Clone()
		m.UpdatedAt = at
	})
}

func (r *MembershipRepository) SetStatus(_ context.Context, id string, status domain.Status, joinedAt *time.Time, at time.Time) (*domain.Membership, error) {
	return r.update(id, func(m *domain.Membership) {
		m.Status = status
		if joinedAt != nil {
			t := *joinedAt
			m.JoinedAt = &t
		}
		m.UpdatedAt = at
	})
}

func (r *MembershipRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok {
		return errMembershipMissing
	}
	if m.IsOwner() {
		return domain.ErrOwnerMembership
	}
	delete(r.s.byUser, m.UserID)
	delete(r.s.memberships, id)
	return nil
}

func (r *MembershipRepository) CountByCustomRole(_ context.Context, roleID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countByCustomRole(roleID), nil
}

func (r *MembershipRepository) update(id string, fn func(*domain.Membership)) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, errMembershipMissing
	}
	if m.IsOwner() {
		return nil, domain.ErrOwnerMembership
	}
	fn(m)
	return m.Clone(), nil
}

func (s *Store) countByCustomRole(roleID string) int64 {
	var n int64
	for _, m := range s.memberships {
		if id, ok := m.Role.Custom(); ok && id == roleID {
			n++
		}
	}
	return n
}

func (s *Store) ownerOf(orgID string) *domain.Membership {
	for _, m := range s.memberships {
		if m.OrgID == orgID && m.IsOwner() {
			return m
		}
	}
	return nil
}
