package memory

import (
	"context"
	"sort"
	"strings"

	auditdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/domain"
	orgdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
	userdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

// UserRepository implements the user directory repository.
type UserRepository struct{ s *Store }

func (r *UserRepository) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Create(_ context.Context, u *userdomain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return errUserExists
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

// OrganizationRepository implements the organization repository.
type OrganizationRepository struct{ s *Store }

func (r *OrganizationRepository) GetOrganizationByID(_ context.Context, id string) (*orgdomain.Org, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orgs[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (r *OrganizationRepository) CreateOrganization(_ context.Context, o *orgdomain.Org) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[o.ID]; ok {
		return errOrgExists
	}
	c := *o
	r.s.orgs[o.ID] = &c
	return nil
}

// AuditRepository implements the audit log repository.
type AuditRepository struct{ s *Store }

func (r *AuditRepository) GetByID(_ context.Context, id string) (*auditdomain.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.auditLogs {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

// ListByOrg returns the org's entries, newest first.
func (r *AuditRepository) ListByOrg(_ context.Context, orgID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*auditdomain.AuditLog
	for _, a := range r.s.auditLogs {
		if a.OrgID == orgID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *AuditRepository) Create(_ context.Context, a *auditdomain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *a
	r.s.auditLogs = append(r.s.auditLogs, &c)
	return nil
}
