// Package memory is a single-writer in-memory implementation of every repository.
// One mutex guards all state, so multi-entity operations such as completing an
// ownership transfer are atomic. Used by tests and when no DATABASE_URL is configured.
package memory

import (
	"context"
	"sync"

	auditdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/domain"
	joincodedomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	orgdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
	roledomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
	transferdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
	userdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

// Store holds all state. Use the accessor methods to get per-entity repositories.
type Store struct {
	mu sync.Mutex

	users       map[string]*userdomain.User
	orgs        map[string]*orgdomain.Org
	memberships map[string]*membershipdomain.Membership
	byUser      map[string]string
	roles       map[string]*roledomain.CustomRole
	transfers   map[string]*transferdomain.Request
	joinCodes   map[string]*joincodedomain.JoinCode
	codeToOrg   map[string]string
	auditLogs   []*auditdomain.AuditLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]*userdomain.User),
		orgs:        make(map[string]*orgdomain.Org),
		memberships: make(map[string]*membershipdomain.Membership),
		byUser:      make(map[string]string),
		roles:       make(map[string]*roledomain.CustomRole),
		transfers:   make(map[string]*transferdomain.Request),
		joinCodes:   make(map[string]*joincodedomain.JoinCode),
		codeToOrg:   make(map[string]string),
	}
}

// Ping always succeeds. It lets the store stand in for a database in health checks.
func (s *Store) Ping(context.Context) error { return nil }

// Users returns the user directory repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Organizations returns the organization repository.
func (s *Store) Organizations() *OrganizationRepository { return &OrganizationRepository{s: s} }

// Memberships returns the membership repository.
func (s *Store) Memberships() *MembershipRepository { return &MembershipRepository{s: s} }

// Roles returns the custom role repository.
func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

// Transfers returns the ownership transfer repository.
func (s *Store) Transfers() *TransferRepository { return &TransferRepository{s: s} }

// JoinCodes returns the join code repository.
func (s *Store) JoinCodes() *JoinCodeRepository { return &JoinCodeRepository{s: s} }

// AuditLogs returns the audit log repository.
func (s *Store) AuditLogs() *AuditRepository { return &AuditRepository{s: s} }

func (s *Store) countActive(orgID string) int64 {
	var n int64
	for _, m := range s.memberships {
		if m.OrgID == orgID && m.Status == membershipdomain.StatusActive {
			n++
		}
	}
	return n
}

func (s *Store) insertMembership(m *membershipdomain.Membership) error {
	if _, ok := s.byUser[m.UserID]; ok {
		return errMembershipExists
	}
	if _, ok := s.memberships[m.ID]; ok {
		return errMembershipExists
	}
	c := m.Clone()
	s.memberships[c.ID] = c
	s.byUser[c.UserID] = c.ID
	return nil
}
