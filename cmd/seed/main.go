// seed inserts development sample data for local testing and prints a bearer token per
// seeded user. Idempotent: skips inserts if the dev owner (owner@example.com) already exists.
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/config"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/logger"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/security"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/seed"
	pgstore "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/postgres"
	userdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

const (
	devOrgID      = "dev-org-001"
	devOwnerEmail = "owner@example.com"
)

var devMembers = []struct {
	id, name, email string
	role            rbac.DefaultRole
}{
	{"dev-user-admin", "Ada Admin", "admin@example.com", rbac.RoleAdmin},
	{"dev-user-manager", "Hal Manager", "manager@example.com", rbac.RoleHRManager},
	{"dev-user-recruiter", "Rae Recruiter", "recruiter@example.com", rbac.RoleHRRecruiter},
	{"dev-user-viewer", "Vic Viewer", "viewer@example.com", rbac.RoleViewer},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Setup(true)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{ConnString: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer pool.Close()
	set := pgstore.New(pool)

	existing, err := set.Users.GetByEmail(ctx, devOwnerEmail)
	if err != nil {
		log.Fatal().Err(err).Msg("seed check")
	}
	users := []*userdomain.User{existing}
	if existing != nil {
		log.Info().Msg("Seed already applied (owner@example.com exists). Skipping inserts.")
		for _, m := range devMembers {
			u, err := set.Users.GetByID(ctx, m.id)
			if err != nil {
				log.Fatal().Err(err).Msg("load dev user")
			}
			if u != nil {
				users = append(users, u)
			}
		}
	} else {
		users = seedOrg(ctx, &seed.Directory{Users: set.Users, Orgs: set.Organizations, Memberships: set.Memberships})
	}

	printTokens(cfg, users)
}

func seedOrg(ctx context.Context, dir *seed.Directory) []*userdomain.User {
	owner, err := dir.User(ctx, "dev-user-owner", "Olga Owner", devOwnerEmail)
	if err != nil {
		log.Fatal().Err(err).Msg("create owner")
	}
	if _, _, err := dir.Organization(ctx, devOrgID, "Dev Company", owner); err != nil {
		log.Fatal().Err(err).Msg("create organization")
	}
	users := []*userdomain.User{owner}
	for _, m := range devMembers {
		u, err := dir.User(ctx, m.id, m.name, m.email)
		if err != nil {
			log.Fatal().Err(err).Str("email", m.email).Msg("create user")
		}
		if _, err := dir.Member(ctx, devOrgID, u, rbac.DefaultRef(m.role), membershipdomain.StatusActive); err != nil {
			log.Fatal().Err(err).Str("email", m.email).Msg("create membership")
		}
		users = append(users, u)
	}
	log.Info().Str("org_id", devOrgID).Int("members", len(users)).Msg("seed applied")
	return users
}

func printTokens(cfg *config.Config, users []*userdomain.User) {
	if cfg.JWTPrivateKey == "" {
		log.Warn().Msg("JWT_PRIVATE_KEY is not set; no dev tokens issued")
		return
	}
	signer, pub, err := security.ParseKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT keys")
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	for _, u := range users {
		token, exp, err := tokens.Issue(u.ID, u.Name, u.Email)
		if err != nil {
			log.Fatal().Err(err).Msg("issue token")
		}
		fmt.Printf("%s\t%s\t(expires %s)\n\t%s\n", u.Email, u.ID, exp.Format("15:04:05"), token)
	}
}
