package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/service"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
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
	_, err = dir.User(ctx, "u-new", "Newcomer", "new@example.com")
	require.NoError(t, err)

	svc := service.NewService(st.JoinCodes(), st.Memberships(), st.Organizations(), resolver, nil, nil, nil, time.Minute)
	return NewServer(svc)
}

func as(userID string) context.Context {
	return interceptors.WithIdentity(context.Background(), userID, "")
}

func TestServer_JoinWithCode(t *testing.T) {
	srv := newServer(t)
	owner := as("u-owner")

	got, err := srv.GetJoinCode(owner, &GetJoinCodeRequest{})
	require.NoError(t, err)
	require.False(t, got.JoinCode.Enabled)
	require.NotEmpty(t, got.JoinCode.Code)

	_, err = srv.JoinWithCode(as("u-new"), &JoinWithCodeRequest{Code: got.JoinCode.Code})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	enabled := true
	limit := 10
	updated, err := srv.UpdateJoinCode(owner, &UpdateJoinCodeRequest{Enabled: &enabled, MaxMembers: &limit})
	require.NoError(t, err)
	require.True(t, updated.JoinCode.Enabled)
	require.Equal(t, 10, *updated.JoinCode.MaxMembers)

	joined, err := srv.JoinWithCode(as("u-new"), &JoinWithCodeRequest{Code: got.JoinCode.Code})
	require.NoError(t, err)
	require.Equal(t, "VIEWER", joined.Membership.Role.Default)
	require.Equal(t, "org-1", joined.Membership.OrgID)

	_, err = srv.JoinWithCode(as("u-viewer"), &JoinWithCodeRequest{Code: got.JoinCode.Code})
	require.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestServer_JoinCodeRequiresInvitePermission(t *testing.T) {
	srv := newServer(t)
	_, err := srv.GetJoinCode(as("u-viewer"), &GetJoinCodeRequest{})
	require.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = srv.JoinWithCode(as("u-new"), &JoinWithCodeRequest{Code: "NOPE"})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = srv.RegenerateJoinCode(context.Background(), &RegenerateJoinCodeRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}
