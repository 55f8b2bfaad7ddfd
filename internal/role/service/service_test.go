package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/seed"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/memory"
)

type fixture struct {
	store  *memory.Store
	svc    *Service
	dir    *seed.Directory
	orgID  string
	owner  *membershipdomain.Membership
	admin  *membershipdomain.Membership
	viewer *membershipdomain.Membership
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	dir := &seed.Directory{Users: st.Users(), Orgs: st.Organizations(), Memberships: st.Memberships()}
	resolver := access.NewResolver(st.Memberships(), st.Roles(), rbac.DefaultHierarchy())
	f := &fixture{
		store: st,
		dir:   dir,
		svc:   NewService(st.Roles(), resolver, audit.NewLogger(st.AuditLogs(), nil), nil),
	}

	ownerUser, err := dir.User(ctx, "u-owner", "Owner", "owner@example.com")
	require.NoError(t, err)
	org, owner, err := dir.Organization(ctx, "org-1", "Acme", ownerUser)
	require.NoError(t, err)
	f.orgID, f.owner = org.ID, owner

	adminUser, err := dir.User(ctx, "u-admin", "Admin", "admin@example.com")
	require.NoError(t, err)
	f.admin, err = dir.Member(ctx, org.ID, adminUser, rbac.DefaultRef(rbac.RoleAdmin), membershipdomain.StatusActive)
	require.NoError(t, err)

	viewerUser, err := dir.User(ctx, "u-viewer", "Viewer", "viewer@example.com")
	require.NoError(t, err)
	f.viewer, err = dir.Member(ctx, org.ID, viewerUser, rbac.DefaultRef(rbac.RoleViewer), membershipdomain.StatusActive)
	require.NoError(t, err)
	return f
}

func interviewer() CreateParams {
	return CreateParams{
		Name:        "Interviewer",
		Description: "Runs interviews",
		Permissions: rbac.NewSet(rbac.PermConductInterviews, rbac.PermViewCandidates),
		Color:       "#33aa77",
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.Create(ctx, f.admin.UserID, interviewer())
	require.NoError(t, err)
	require.Equal(t, f.orgID, r.OrgID)
	require.Equal(t, f.admin.UserID, r.CreatedByUserID)

	_, err = f.svc.Create(ctx, f.owner.UserID, CreateParams{Name: "interviewer", Permissions: rbac.NewSet(rbac.PermViewCandidates)})
	require.ErrorIs(t, err, errs.ErrConflict)

	_, err = f.svc.Create(ctx, f.viewer.UserID, interviewer())
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params CreateParams
	}{
		{"reserved permission", CreateParams{Name: "Heir", Permissions: rbac.NewSet(rbac.PermTransferOwnership)}},
		{"no permissions", CreateParams{Name: "Empty"}},
		{"blank name", CreateParams{Name: "  ", Permissions: rbac.NewSet(rbac.PermViewCandidates)}},
		{"bad color", CreateParams{Name: "Colorful", Permissions: rbac.NewSet(rbac.PermViewCandidates), Color: "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Create(context.Background(), f.owner.UserID, tt.params)
			require.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestUpdate_ChangesResolvedPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.owner.UserID, interviewer())
	require.NoError(t, err)
	_, err = f.store.Memberships().UpdateRole(ctx, f.viewer.ID, rbac.CustomRef(r.ID), r.CreatedAt)
	require.NoError(t, err)

	name := "Senior Interviewer"
	updated, err := f.svc.Update(ctx, f.admin.UserID, r.ID, domain.Patch{
		Name:        &name,
		Permissions: rbac.NewSet(rbac.PermScheduleInterviews),
	})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, "#33aa77", updated.Color)

	resolver := access.NewResolver(f.store.Memberships(), f.store.Roles(), rbac.DefaultHierarchy())
	m, err := f.store.Memberships().GetByID(ctx, f.viewer.ID)
	require.NoError(t, err)
	perms, err := resolver.Effective(ctx, m)
	require.NoError(t, err)
	require.Equal(t, []rbac.Permission{rbac.PermScheduleInterviews}, perms.Slice())

	_, err = f.svc.Update(ctx, f.admin.UserID, r.ID, domain.Patch{Permissions: rbac.NewSet(rbac.PermDeleteCompany)})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.owner.UserID, interviewer())
	require.NoError(t, err)
	_, err = f.store.Memberships().UpdateRole(ctx, f.viewer.ID, rbac.CustomRef(r.ID), r.CreatedAt)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.admin.UserID, r.ID)
	require.ErrorIs(t, err, errs.ErrConflict)

	_, err = f.store.Memberships().UpdateRole(ctx, f.viewer.ID, rbac.DefaultRef(rbac.RoleViewer), r.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, f.admin.UserID, r.ID))

	err = f.svc.Delete(ctx, f.admin.UserID, r.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestList_OrgScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.owner.UserID, interviewer())
	require.NoError(t, err)

	otherOwner, err := f.dir.User(ctx, "u-other", "Other", "other@example.com")
	require.NoError(t, err)
	_, _, err = f.dir.Organization(ctx, "org-2", "Globex", otherOwner)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, otherOwner.ID, interviewer())
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.viewer.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, f.orgID, list[0].OrgID)

	_, err = f.svc.Get(ctx, otherOwner.ID, list[0].ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
