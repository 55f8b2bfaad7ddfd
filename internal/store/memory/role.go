package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
)

// RoleRepository implements the custom role repository.
type RoleRepository struct{ s *Store }

func (r *RoleRepository) GetByID(_ context.Context, id string) (*domain.CustomRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.roles[id].Clone(), nil
}

// ListByOrg returns the org's roles ordered by name.
func (r *RoleRepository) ListByOrg(_ context.Context, orgID string) ([]*domain.CustomRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.CustomRole
	for _, role := range r.s.roles {
		if role.OrgID == orgID {
			out = append(out, role.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RoleRepository) Create(_ context.Context, role *domain.CustomRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(role) {
		return errRoleNameTaken
	}
	r.s.roles[role.ID] = role.Clone()
	return nil
}

func (r *RoleRepository) Update(_ context.Context, role *domain.CustomRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[role.ID]; !ok {
		return errRoleMissing
	}
	if r.nameTaken(role) {
		return errRoleNameTaken
	}
	r.s.roles[role.ID] = role.Clone()
	return nil
}

func (r *RoleRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return errRoleMissing
	}
	if r.s.countByCustomRole(id) > 0 {
		return errRoleInUse
	}
	delete(r.s.roles, id)
	return nil
}

func (r *RoleRepository) nameTaken(role *domain.CustomRole) bool {
	for _, other := range r.s.roles {
		if other.ID != role.ID && other.OrgID == role.OrgID && strings.EqualFold(other.Name, role.Name) {
			return true
		}
	}
	return false
}
