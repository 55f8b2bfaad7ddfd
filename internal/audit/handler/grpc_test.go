package handler

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	auditdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/domain"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/seed"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/interceptors"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/memory"
)

// failingAuditRepo fails every list call.
type failingAuditRepo struct {
	*memory.AuditRepository
}

func (failingAuditRepo) ListByOrg(context.Context, string, int32, int32) ([]*auditdomain.AuditLog, error) {
	return nil, errors.New("database error")
}

func setup(t *testing.T, entries int) (*memory.Store, *access.Resolver) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	dir := &seed.Directory{Users: st.Users(), Orgs: st.Organizations(), Memberships: st.Memberships()}

	admin, err := dir.User(ctx, "admin-1", "Admin", "admin@example.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, _, err := dir.Organization(ctx, "org-1", "Acme", admin); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	member, err := dir.User(ctx, "member-1", "Member", "member@example.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := dir.Member(ctx, "org-1", member, rbac.DefaultRef(rbac.RoleViewer), membershipdomain.StatusActive); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	base := time.Now().UTC()
	for i := 0; i < entries; i++ {
		err := st.AuditLogs().Create(ctx, &auditdomain.AuditLog{
			ID:        "log-" + strconv.Itoa(i),
			OrgID:     "org-1",
			UserID:    "admin-1",
			Action:    "role_changed",
			Resource:  "membership",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}
	return st, access.NewResolver(st.Memberships(), st.Roles(), rbac.DefaultHierarchy())
}

func as(userID string) context.Context {
	return interceptors.WithIdentity(context.Background(), userID, "")
}

func TestListAuditLogs_Success(t *testing.T) {
	st, resolver := setup(t, 2)
	srv := NewServer(st.AuditLogs(), resolver)

	resp, err := srv.ListAuditLogs(as("admin-1"), &ListAuditLogsRequest{})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(resp.Logs) != 2 {
		t.Errorf("logs count = %d, want 2", len(resp.Logs))
	}
	if resp.Logs[0].ID != "log-1" {
		t.Errorf("first log = %q, want newest %q", resp.Logs[0].ID, "log-1")
	}
	if resp.NextPageToken != "" {
		t.Errorf("next page token = %q, want empty", resp.NextPageToken)
	}
}

func TestListAuditLogs_Pagination(t *testing.T) {
	st, resolver := setup(t, 45)
	srv := NewServer(st.AuditLogs(), resolver)

	seen := map[string]bool{}
	token := ""
	pages := 0
	for {
		resp, err := srv.ListAuditLogs(as("admin-1"), &ListAuditLogsRequest{PageSize: 20, PageToken: token})
		if err != nil {
			t.Fatalf("ListAuditLogs: %v", err)
		}
		pages++
		for _, l := range resp.Logs {
			seen[l.ID] = true
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if len(seen) != 45 {
		t.Errorf("distinct logs = %d, want 45", len(seen))
	}
}

func TestListAuditLogs_MaxPageSize(t *testing.T) {
	st, resolver := setup(t, 200)
	srv := NewServer(st.AuditLogs(), resolver)

	resp, err := srv.ListAuditLogs(as("admin-1"), &ListAuditLogsRequest{PageSize: 150})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(resp.Logs) != maxPageSize {
		t.Errorf("logs count = %d, want %d", len(resp.Logs), maxPageSize)
	}
}

func TestListAuditLogs_InvalidPageToken(t *testing.T) {
	st, resolver := setup(t, 1)
	srv := NewServer(st.AuditLogs(), resolver)

	_, err := srv.ListAuditLogs(as("admin-1"), &ListAuditLogsRequest{PageToken: "abc"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestListAuditLogs_CallerWithoutEditCompany(t *testing.T) {
	st, resolver := setup(t, 1)
	srv := NewServer(st.AuditLogs(), resolver)

	_, err := srv.ListAuditLogs(as("member-1"), &ListAuditLogsRequest{})
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.PermissionDenied)
	}
}

func TestListAuditLogs_Unauthenticated(t *testing.T) {
	st, resolver := setup(t, 1)
	srv := NewServer(st.AuditLogs(), resolver)

	_, err := srv.ListAuditLogs(context.Background(), &ListAuditLogsRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.Unauthenticated)
	}
}

func TestListAuditLogs_RepositoryError(t *testing.T) {
	st, resolver := setup(t, 1)
	srv := NewServer(failingAuditRepo{st.AuditLogs()}, resolver)

	_, err := srv.ListAuditLogs(as("admin-1"), &ListAuditLogsRequest{})
	st2, ok := status.FromError(err)
	if !ok {
		t.Fatalf("error is not a gRPC status: %v", err)
	}
	if st2.Code() != codes.Internal {
		t.Errorf("status code = %v, want %v", st2.Code(), codes.Internal)
	}
	if st2.Message() == "database error" {
		t.Error("internal error text leaked to the client")
	}
}

func TestListAuditLogs_NilRepo(t *testing.T) {
	srv := NewServer(nil, nil)
	_, err := srv.ListAuditLogs(as("admin-1"), &ListAuditLogsRequest{})
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.Unimplemented)
	}
}
