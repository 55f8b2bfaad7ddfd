package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/service"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/seed"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/interceptors"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/memory"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	dir := &seed.Directory{Users: st.Users(), Orgs: st.Organizations(), Memberships: st.Memberships()}
	resolver := access.NewResolver(st.Memberships(), st.Roles(), rbac.DefaultHierarchy())

	owner, err := dir.User(ctx, "u-owner", "Owner", "owner@example.com")
	require.NoError(t, err)
	_, _, err = dir.Organization(ctx, "org-1", "Acme", owner)
	require.NoError(t, err)
	viewer, err := dir.User(ctx, "u-viewer", "Viewer", "viewer@example.com")
	require.NoError(t, err)
	_, err = dir.Member(ctx, "org-1", viewer, rbac.DefaultRef(rbac.RoleViewer), membershipdomain.StatusActive)
	require.NoError(t, err)

	return NewServer(service.NewService(st.Roles(), resolver, nil, nil))
}

func as(userID string) context.Context {
	return interceptors.WithIdentity(context.Background(), userID, "")
}

func TestServer_CustomRoleLifecycle(t *testing.T) {
	srv := newServer(t)
	owner := as("u-owner")

	created, err := srv.CreateCustomRole(owner, &CreateCustomRoleRequest{
		Name:        "Interviewer",
		Permissions: []string{"view_candidates", "SCHEDULE_INTERVIEWS"},
		Color:       "#00aa88",
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"VIEW_CANDIDATES", "SCHEDULE_INTERVIEWS"}, created.Role.Permissions)

	name := "Senior Interviewer"
	updated, err := srv.UpdateCustomRole(owner, &UpdateCustomRoleRequest{RoleID: created.Role.ID, Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Role.Name)
	require.ElementsMatch(t, created.Role.Permissions, updated.Role.Permissions)

	list, err := srv.ListCustomRoles(as("u-viewer"), &ListCustomRolesRequest{})
	require.NoError(t, err)
	require.Len(t, list.Roles, 1)

	_, err = srv.DeleteCustomRole(owner, &DeleteCustomRoleRequest{RoleID: created.Role.ID})
	require.NoError(t, err)
	_, err = srv.GetCustomRole(owner, &GetCustomRoleRequest{RoleID: created.Role.ID})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_CreateCustomRoleRejects(t *testing.T) {
	srv := newServer(t)

	_, err := srv.CreateCustomRole(as("u-owner"), &CreateCustomRoleRequest{
		Name:        "Deleter",
		Permissions: []string{"DELETE_COMPANY"},
	})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = srv.CreateCustomRole(as("u-owner"), &CreateCustomRoleRequest{
		Name:        "Bogus",
		Permissions: []string{"FLY"},
	})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = srv.CreateCustomRole(as("u-viewer"), &CreateCustomRoleRequest{
		Name:        "Nope",
		Permissions: []string{"VIEW_CANDIDATES"},
	})
	require.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = srv.ListCustomRoles(context.Background(), &ListCustomRolesRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}
