package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/notification"
	orgdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	roledomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/seed"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/memory"
	transferdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
)

type fixture struct {
	store *memory.Store
	dir   *seed.Directory
	rec   *notification.Recorder
	svc   *Service
	org   *orgdomain.Org

	owner, admin, manager, recruiter, viewer *domain.Membership
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	f := &fixture{
		store: st,
		dir:   &seed.Directory{Users: st.Users(), Orgs: st.Organizations(), Memberships: st.Memberships()},
		rec:   &notification.Recorder{},
	}
	resolver := access.NewResolver(st.Memberships(), st.Roles(), rbac.DefaultHierarchy())
	f.svc = NewService(st.Memberships(), st.Roles(), st.Users(), resolver, f.rec, audit.NewLogger(st.AuditLogs(), nil), nil)

	ownerUser, err := f.dir.User(ctx, "u-owner", "Olivia Owner", "owner@example.com")
	require.NoError(t, err)
	f.org, f.owner, err = f.dir.Organization(ctx, "org-1", "Acme", ownerUser)
	require.NoError(t, err)
	f.admin = f.member(t, "u-admin", rbac.DefaultRef(rbac.RoleAdmin))
	f.manager = f.member(t, "u-manager", rbac.DefaultRef(rbac.RoleHRManager))
	f.recruiter = f.member(t, "u-recruiter", rbac.DefaultRef(rbac.RoleHRRecruiter))
	f.viewer = f.member(t, "u-viewer", rbac.DefaultRef(rbac.RoleViewer))
	return f
}

func (f *fixture) member(t *testing.T, userID string, role rbac.RoleRef) *domain.Membership {
	t.Helper()
	ctx := context.Background()
	u, err := f.dir.User(ctx, userID, userID, userID+"@example.com")
	require.NoError(t, err)
	m, err := f.dir.Member(ctx, f.org.ID, u, role, domain.StatusActive)
	require.NoError(t, err)
	return m
}

func (f *fixture) customRole(t *testing.T, name string, perms ...rbac.Permission) *roledomain.CustomRole {
	t.Helper()
	now := time.Now().UTC()
	r := &roledomain.CustomRole{
		ID:              "role-" + name,
		OrgID:           f.org.ID,
		Name:            name,
		Permissions:     rbac.NewSet(perms...),
		CreatedByUserID: f.owner.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.store.Roles().Create(context.Background(), r))
	return r
}

func (f *fixture) get(t *testing.T, id string) *domain.Membership {
	t.Helper()
	m, err := f.store.Memberships().GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

func TestResolvePermissions_ReservedClosure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Memberships().SetExtraPermissions(ctx, f.viewer.ID, rbac.NewSet(rbac.PermTransferOwnership, rbac.PermSendMessages), time.Now())
	require.NoError(t, err)

	perms, err := f.svc.ResolvePermissions(ctx, f.viewer.UserID, "")
	require.NoError(t, err)
	require.False(t, perms.Has(rbac.PermTransferOwnership))
	require.True(t, perms.Has(rbac.PermSendMessages))
	require.True(t, perms.Has(rbac.PermViewInternships))

	ok, err := f.svc.HasPermission(ctx, f.admin.UserID, f.viewer.ID, rbac.PermTransferOwnership)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.svc.HasPermission(ctx, f.viewer.UserID, f.owner.ID, rbac.PermTransferOwnership)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasPermission_UnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HasPermission(context.Background(), f.viewer.UserID, "", rbac.Permission("FLY"))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestResolvePermissions_OtherOrgIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherOwner, err := f.dir.User(ctx, "u-other", "Other", "other@example.com")
	require.NoError(t, err)
	_, otherMembership, err := f.dir.Organization(ctx, "org-2", "Globex", otherOwner)
	require.NoError(t, err)

	_, err = f.svc.ResolvePermissions(ctx, f.admin.UserID, otherMembership.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestResolvePermissions_SuspendedActsWithNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SetMemberStatus(ctx, f.admin.UserID, f.recruiter.ID, domain.StatusSuspended)
	require.NoError(t, err)

	perms, err := f.svc.ResolvePermissions(ctx, f.admin.UserID, f.recruiter.ID)
	require.NoError(t, err)
	require.Empty(t, perms)

	_, err = f.svc.ResolvePermissions(ctx, f.recruiter.UserID, "")
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestRemoveMember(t *testing.T) {
	tests := []struct {
		name    string
		actor   func(f *fixture) *domain.Membership
		target  func(f *fixture) *domain.Membership
		wantErr error
	}{
		{"admin cannot remove owner", func(f *fixture) *domain.Membership { return f.admin }, func(f *fixture) *domain.Membership { return f.owner }, errs.ErrOwnerInvariant},
		{"recruiter cannot remove admin", func(f *fixture) *domain.Membership { return f.recruiter }, func(f *fixture) *domain.Membership { return f.admin }, errs.ErrPermissionDenied},
		{"self removal rejected", func(f *fixture) *domain.Membership { return f.admin }, func(f *fixture) *domain.Membership { return f.admin }, errs.ErrValidation},
		{"owner removes admin", func(f *fixture) *domain.Membership { return f.owner }, func(f *fixture) *domain.Membership { return f.admin }, nil},
		{"admin removes viewer", func(f *fixture) *domain.Membership { return f.admin }, func(f *fixture) *domain.Membership { return f.viewer }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actor, target := tt.actor(f), tt.target(f)
			err := f.svc.RemoveMember(context.Background(), actor.UserID, target.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.NotNil(t, f.get(t, target.ID))
				return
			}
			require.NoError(t, err)
			require.Nil(t, f.get(t, target.ID))
			sent := f.rec.For(target.UserID)
			require.Len(t, sent, 1)
			require.Equal(t, notification.KindMemberRemoved, sent[0].Kind)
		})
	}
}

func TestRemoveMember_OwnerInvariantNotCoercedToPermission(t *testing.T) {
	f := newFixture(t)
	err := f.svc.RemoveMember(context.Background(), f.admin.UserID, f.owner.ID)
	require.ErrorIs(t, err, errs.ErrOwnerInvariant)
	require.False(t, errors.Is(err, errs.ErrPermissionDenied))
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Leave(ctx, f.owner.UserID)
	require.ErrorIs(t, err, errs.ErrOwnerInvariant)
	require.NotNil(t, f.get(t, f.owner.ID))

	require.NoError(t, f.svc.Leave(ctx, f.admin.UserID))
	require.Nil(t, f.get(t, f.admin.ID))

	err = f.svc.Leave(ctx, f.admin.UserID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAssignRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("owner role is never assignable", func(t *testing.T) {
		_, err := f.svc.AssignRole(ctx, f.owner.UserID, f.admin.ID, rbac.DefaultRef(rbac.RoleOwner))
		require.ErrorIs(t, err, errs.ErrOwnerInvariant)
	})
	t.Run("owner cannot be demoted", func(t *testing.T) {
		_, err := f.svc.AssignRole(ctx, f.admin.UserID, f.owner.ID, rbac.DefaultRef(rbac.RoleViewer))
		require.ErrorIs(t, err, errs.ErrOwnerInvariant)
	})
	t.Run("missing permission", func(t *testing.T) {
		_, err := f.svc.AssignRole(ctx, f.manager.UserID, f.viewer.ID, rbac.DefaultRef(rbac.RoleHRRecruiter))
		require.ErrorIs(t, err, errs.ErrPermissionDenied)
	})
	t.Run("cannot grant own rank", func(t *testing.T) {
		_, err := f.svc.AssignRole(ctx, f.admin.UserID, f.viewer.ID, rbac.DefaultRef(rbac.RoleAdmin))
		require.ErrorIs(t, err, access.ErrOutranked)
	})
	t.Run("admin promotes viewer", func(t *testing.T) {
		m, err := f.svc.AssignRole(ctx, f.admin.UserID, f.viewer.ID, rbac.DefaultRef(rbac.RoleHRManager))
		require.NoError(t, err)
		r, ok := m.Role.Default()
		require.True(t, ok)
		require.Equal(t, rbac.RoleHRManager, r)
		require.Len(t, f.rec.For(f.viewer.UserID), 1)
	})
	t.Run("invalid ref", func(t *testing.T) {
		_, err := f.svc.AssignRole(ctx, f.owner.UserID, f.viewer.ID, rbac.RoleRef{})
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestAssignRole_CustomRoleExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.customRole(t, "Interviewer", rbac.PermConductInterviews)

	m, err := f.svc.AssignRole(ctx, f.admin.UserID, f.viewer.ID, rbac.CustomRef(role.ID))
	require.NoError(t, err)
	id, ok := m.Role.Custom()
	require.True(t, ok)
	require.Equal(t, role.ID, id)
	_, isDefault := m.Role.Default()
	require.False(t, isDefault)

	perms, err := f.svc.ResolvePermissions(ctx, f.viewer.UserID, "")
	require.NoError(t, err)
	require.Equal(t, []rbac.Permission{rbac.PermConductInterviews}, perms.Slice())

	m, err = f.svc.AssignRole(ctx, f.admin.UserID, f.viewer.ID, rbac.DefaultRef(rbac.RoleHRRecruiter))
	require.NoError(t, err)
	_, isCustom := m.Role.Custom()
	require.False(t, isCustom)

	_, err = f.svc.AssignRole(ctx, f.admin.UserID, f.viewer.ID, rbac.CustomRef("role-missing"))
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSetExtraPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetExtraPermissions(ctx, f.owner.UserID, f.viewer.ID, rbac.NewSet(rbac.PermDeleteCompany))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.SetExtraPermissions(ctx, f.owner.UserID, f.owner.ID, rbac.NewSet(rbac.PermSendMessages))
	require.ErrorIs(t, err, errs.ErrOwnerInvariant)

	_, err = f.svc.SetExtraPermissions(ctx, f.recruiter.UserID, f.viewer.ID, rbac.NewSet(rbac.PermSendMessages))
	require.ErrorIs(t, err, errs.ErrPermissionDenied)

	m, err := f.svc.SetExtraPermissions(ctx, f.admin.UserID, f.viewer.ID, rbac.NewSet(rbac.PermSendMessages, rbac.PermViewAnalytics))
	require.NoError(t, err)
	require.True(t, m.ExtraPermissions.Has(rbac.PermViewAnalytics))

	ok, err := f.svc.HasPermission(ctx, f.viewer.UserID, "", rbac.PermViewAnalytics)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.SetExtraPermissions(ctx, f.admin.UserID, f.admin.ID, rbac.NewSet(rbac.PermSendMessages))
	require.ErrorIs(t, err, access.ErrOutranked)
}

func TestSetExtraPermissions_CannotExceedActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Memberships().SetExtraPermissions(ctx, f.manager.ID, rbac.NewSet(rbac.PermDelegatePermissions), time.Now())
	require.NoError(t, err)

	_, err = f.svc.SetExtraPermissions(ctx, f.manager.UserID, f.viewer.ID, rbac.NewSet(rbac.PermEditCompany))
	require.ErrorIs(t, err, ErrDelegationExceedsActor)

	m, err := f.svc.SetExtraPermissions(ctx, f.manager.UserID, f.viewer.ID, rbac.NewSet(rbac.PermViewAnalytics))
	require.NoError(t, err)
	require.Equal(t, []rbac.Permission{rbac.PermViewAnalytics}, m.ExtraPermissions.Slice())
}

func TestSetExtraPermissions_CustomRoleRank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	delegator := f.customRole(t, "Delegator", rbac.PermDelegatePermissions, rbac.PermViewInternships)
	_, err := f.svc.AssignRole(ctx, f.owner.UserID, f.recruiter.ID, rbac.CustomRef(delegator.ID))
	require.NoError(t, err)

	// custom roles rank as VIEWER by default
	_, err = f.svc.SetExtraPermissions(ctx, f.recruiter.UserID, f.viewer.ID, rbac.NewSet(rbac.PermViewInternships))
	require.ErrorIs(t, err, access.ErrOutranked)
}

func TestInviteAndAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.dir.User(ctx, "u-new", "Nora New", "nora@example.com")
	require.NoError(t, err)

	_, err = f.svc.InviteMember(ctx, f.recruiter.UserID, u.ID)
	require.ErrorIs(t, err, errs.ErrPermissionDenied)

	_, err = f.svc.InviteMember(ctx, f.manager.UserID, "u-ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.InviteMember(ctx, f.manager.UserID, f.viewer.UserID)
	require.ErrorIs(t, err, errs.ErrConflict)

	m, err := f.svc.InviteMember(ctx, f.manager.UserID, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInvited, m.Status)
	require.Equal(t, f.manager.UserID, m.InvitedByUserID)

	perms, err := f.svc.ResolvePermissions(ctx, f.admin.UserID, m.ID)
	require.NoError(t, err)
	require.Empty(t, perms)

	accepted, err := f.svc.AcceptInvitation(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, accepted.Status)
	require.NotNil(t, accepted.JoinedAt)
	require.Len(t, f.rec.For(f.manager.UserID), 1)

	_, err = f.svc.AcceptInvitation(ctx, u.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestSetMemberStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetMemberStatus(ctx, f.admin.UserID, f.owner.ID, domain.StatusSuspended)
	require.ErrorIs(t, err, errs.ErrOwnerInvariant)

	_, err = f.svc.SetMemberStatus(ctx, f.admin.UserID, f.viewer.ID, domain.StatusInvited)
	require.ErrorIs(t, err, errs.ErrValidation)

	m, err := f.svc.SetMemberStatus(ctx, f.admin.UserID, f.viewer.ID, domain.StatusSuspended)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, m.Status)

	m, err = f.svc.SetMemberStatus(ctx, f.admin.UserID, f.viewer.ID, domain.StatusActive)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, m.Status)
}

func TestListMembers(t *testing.T) {
	f := newFixture(t)
	list, err := f.svc.ListMembers(context.Background(), f.viewer.UserID)
	require.NoError(t, err)
	require.Len(t, list, 5)

	owners := 0
	for _, m := range list {
		if m.IsOwner() {
			owners++
			require.Equal(t, f.org.OwnerUserID, m.UserID)
			require.True(t, m.Permissions.Has(rbac.PermTransferOwnership))
		}
	}
	require.Equal(t, 1, owners)

	_, err = f.svc.ListMembers(context.Background(), "u-nobody")
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestMutationsAreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RemoveMember(ctx, f.admin.UserID, f.viewer.ID))

	logs, err := f.store.AuditLogs().ListByOrg(ctx, f.org.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, audit.ActionMemberRemoved, logs[0].Action)
	require.Equal(t, f.admin.UserID, logs[0].UserID)
}

// transferringMemberships runs beforeWrite ahead of every mutation, after the service has
// already loaded and checked the target.
type transferringMemberships struct {
	*memory.MembershipRepository
	beforeWrite func()
}

func (r *transferringMemberships) UpdateRole(ctx context.Context, id string, role rbac.RoleRef, at time.Time) (*domain.Membership, error) {
	r.beforeWrite()
	return r.MembershipRepository.UpdateRole(ctx, id, role, at)
}

func (r *transferringMemberships) SetExtraPermissions(ctx context.Context, id string, perms rbac.Set, at time.Time) (*domain.Membership, error) {
	r.beforeWrite()
	return r.MembershipRepository.SetExtraPermissions(ctx, id, perms, at)
}

func (r *transferringMemberships) SetStatus(ctx context.Context, id string, status domain.Status, joinedAt *time.Time, at time.Time) (*domain.Membership, error) {
	r.beforeWrite()
	return r.MembershipRepository.SetStatus(ctx, id, status, joinedAt, at)
}

func (r *transferringMemberships) Delete(ctx context.Context, id string) error {
	r.beforeWrite()
	return r.MembershipRepository.Delete(ctx, id)
}

// completeTransferTo hands ownership to target directly through the transfer repository.
func (f *fixture) completeTransferTo(t *testing.T, target *domain.Membership) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	req := &transferdomain.Request{
		ID:             "transfer-" + target.ID,
		OrgID:          f.org.ID,
		FromUserID:     f.owner.UserID,
		ToUserID:       target.UserID,
		ToMembershipID: target.ID,
		CodeHash:       "unused",
		State:          transferdomain.StateFirstConfirmed,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
	}
	require.NoError(t, f.store.Transfers().CreatePending(ctx, req, now))
	_, err := f.store.Transfers().Complete(ctx, req.ID, now)
	require.NoError(t, err)
}

func TestMutations_ConcurrentTransferKeepsSingleOwner(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture) error
	}{
		{"remove member", func(f *fixture) error {
			return f.svc.RemoveMember(context.Background(), f.admin.UserID, f.manager.ID)
		}},
		{"assign role", func(f *fixture) error {
			_, err := f.svc.AssignRole(context.Background(), f.admin.UserID, f.manager.ID, rbac.DefaultRef(rbac.RoleViewer))
			return err
		}},
		{"set extra permissions", func(f *fixture) error {
			_, err := f.svc.SetExtraPermissions(context.Background(), f.admin.UserID, f.manager.ID, rbac.NewSet(rbac.PermSendMessages))
			return err
		}},
		{"suspend member", func(f *fixture) error {
			_, err := f.svc.SetMemberStatus(context.Background(), f.admin.UserID, f.manager.ID, domain.StatusSuspended)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			repo := &transferringMemberships{MembershipRepository: f.store.Memberships()}
			repo.beforeWrite = func() {
				repo.beforeWrite = func() {}
				f.completeTransferTo(t, f.manager)
			}
			resolver := access.NewResolver(f.store.Memberships(), f.store.Roles(), rbac.DefaultHierarchy())
			f.svc = NewService(repo, f.store.Roles(), f.store.Users(), resolver, f.rec, audit.NewLogger(f.store.AuditLogs(), nil), nil)

			err := tt.mutate(f)
			require.ErrorIs(t, err, errs.ErrOwnerInvariant)

			org, err := f.store.Organizations().GetOrganizationByID(ctx, f.org.ID)
			require.NoError(t, err)
			require.Equal(t, f.manager.UserID, org.OwnerUserID)

			owner, err := f.store.Memberships().GetByID(ctx, f.manager.ID)
			require.NoError(t, err)
			require.NotNil(t, owner)
			require.True(t, owner.IsOwner())
			require.True(t, owner.IsActive())
			require.Empty(t, owner.ExtraPermissions)
		})
	}
}

func TestLeave_AfterBecomingOwner(t *testing.T) {
	f := newFixture(t)
	repo := &transferringMemberships{MembershipRepository: f.store.Memberships()}
	repo.beforeWrite = func() {
		repo.beforeWrite = func() {}
		f.completeTransferTo(t, f.manager)
	}
	resolver := access.NewResolver(f.store.Memberships(), f.store.Roles(), rbac.DefaultHierarchy())
	f.svc = NewService(repo, f.store.Roles(), f.store.Users(), resolver, f.rec, audit.NewLogger(f.store.AuditLogs(), nil), nil)

	err := f.svc.Leave(context.Background(), f.manager.UserID)
	require.ErrorIs(t, err, ErrOwnerCannotLeave)

	m, err := f.store.Memberships().GetByUser(context.Background(), f.manager.UserID)
	require.NoError(t, err)
	require.True(t, m.IsOwner())
}

func TestMembershipRepository_RefusesOwnerRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Memberships()
	now := time.Now().UTC()

	_, err := repo.UpdateRole(ctx, f.owner.ID, rbac.DefaultRef(rbac.RoleAdmin), now)
	require.ErrorIs(t, err, domain.ErrOwnerMembership)
	_, err = repo.SetStatus(ctx, f.owner.ID, domain.StatusSuspended, nil, now)
	require.ErrorIs(t, err, domain.ErrOwnerMembership)
	require.ErrorIs(t, repo.Delete(ctx, f.owner.ID), domain.ErrOwnerMembership)

	_, err = repo.UpdateRole(ctx, f.admin.ID, rbac.DefaultRef(rbac.RoleOwner), now)
	require.ErrorIs(t, err, errs.ErrOwnerInvariant)

	require.ErrorIs(t, repo.Delete(ctx, "missing"), errs.ErrNotFound)
}
