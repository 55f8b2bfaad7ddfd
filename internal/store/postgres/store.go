// Package postgres wires the pgx repositories of every entity onto one pool.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	auditrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/repository"
	joincoderepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/repository"
	membershiprepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/repository"
	orgrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/repository"
	rolerepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/repository"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store"
	transferrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/repository"
	userrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/repository"
)

// New returns a store.Set whose repositories share pool.
func New(pool *pgxpool.Pool) store.Set {
	return store.Set{
		Users:         userrepo.NewPostgresRepository(pool),
		Organizations: orgrepo.NewPostgresRepository(pool),
		Memberships:   membershiprepo.NewPostgresRepository(pool),
		Roles:         rolerepo.NewPostgresRepository(pool),
		Transfers:     transferrepo.NewPostgresRepository(pool),
		JoinCodes:     joincoderepo.NewPostgresRepository(pool),
		AuditLogs:     auditrepo.NewPostgresRepository(pool),
		Health:        pool,
	}
}
