// Package store bundles the per-entity repositories behind one value so callers can
// switch between the in-memory and Postgres backends.
package store

import (
	"context"

	auditrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/repository"
	joincoderepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/repository"
	membershiprepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/repository"
	orgrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/repository"
	rolerepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/repository"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/memory"
	transferrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/repository"
	userrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/repository"
)

// Pinger reports whether the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Set is every repository the services need.
type Set struct {
	Users         userrepo.Repository
	Organizations orgrepo.Repository
	Memberships   membershiprepo.Repository
	Roles         rolerepo.Repository
	Transfers     transferrepo.Repository
	JoinCodes     joincoderepo.Repository
	AuditLogs     auditrepo.Repository
	Health        Pinger
}

// Memory returns a Set backed by s.
func Memory(s *memory.Store) Set {
	return Set{
		Users:         s.Users(),
		Organizations: s.Organizations(),
		Memberships:   s.Memberships(),
		Roles:         s.Roles(),
		Transfers:     s.Transfers(),
		JoinCodes:     s.JoinCodes(),
		AuditLogs:     s.AuditLogs(),
		Health:        s,
	}
}
