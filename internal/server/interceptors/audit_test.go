package interceptors

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
)

type recordedEvent struct {
	orgID, userID, action, resource, metadata string
}

type recordingAuditLogger struct {
	events []recordedEvent
}

func (r *recordingAuditLogger) LogEvent(_ context.Context, orgID, userID, action, resource, metadata string) {
	r.events = append(r.events, recordedEvent{orgID, userID, action, resource, metadata})
}

type membershipsByUser map[string]*membershipdomain.Membership

func (m membershipsByUser) GetByUser(_ context.Context, userID string) (*membershipdomain.Membership, error) {
	return m[userID], nil
}

var denied = func(context.Context, any) (any, error) {
	return nil, status.Error(codes.PermissionDenied, "permission denied: missing CHANGE_ROLES")
}

func TestAuditUnary_RecordsDenial(t *testing.T) {
	rec := &recordingAuditLogger{}
	members := membershipsByUser{"user-1": {ID: "m1", UserID: "user-1", OrgID: "org-1"}}
	interceptor := AuditUnary(rec, members, nil)

	ctx := WithIdentity(context.Background(), "user-1", "")
	info := &grpc.UnaryServerInfo{FullMethod: "/lynkskill.membership.v1.MembershipService/AssignRole"}
	_, err := interceptor(ctx, nil, info, denied)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("interceptor changed the error: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}
	ev := rec.events[0]
	if ev.orgID != "org-1" || ev.userID != "user-1" {
		t.Errorf("org/user = %q/%q, want org-1/user-1", ev.orgID, ev.userID)
	}
	if ev.action != audit.ActionAccessDenied || ev.resource != audit.ResourceMembership {
		t.Errorf("action/resource = %q/%q", ev.action, ev.resource)
	}
}

func TestAuditUnary_NonMemberGoesToSentinel(t *testing.T) {
	rec := &recordingAuditLogger{}
	interceptor := AuditUnary(rec, membershipsByUser{}, nil)
	ctx := WithIdentity(context.Background(), "stranger", "")
	info := &grpc.UnaryServerInfo{FullMethod: "/lynkskill.role.v1.RoleService/CreateCustomRole"}
	_, _ = interceptor(ctx, nil, info, denied)
	if len(rec.events) != 1 || rec.events[0].orgID != "" {
		t.Fatalf("events = %+v, want one event without org", rec.events)
	}
}

func TestAuditUnary_IgnoresOtherOutcomes(t *testing.T) {
	rec := &recordingAuditLogger{}
	interceptor := AuditUnary(rec, membershipsByUser{}, nil)
	ctx := WithIdentity(context.Background(), "user-1", "")
	info := &grpc.UnaryServerInfo{FullMethod: "/lynkskill.membership.v1.MembershipService/Leave"}

	handlers := []grpc.UnaryHandler{
		func(context.Context, any) (any, error) { return "ok", nil },
		func(context.Context, any) (any, error) { return nil, status.Error(codes.FailedPrecondition, "owner") },
		func(context.Context, any) (any, error) { return nil, errors.New("boom") },
	}
	for _, h := range handlers {
		_, _ = interceptor(ctx, nil, info, h)
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %d, want 0", len(rec.events))
	}
}

func TestAuditUnary_SkipMethod(t *testing.T) {
	rec := &recordingAuditLogger{}
	interceptor := AuditUnary(rec, membershipsByUser{}, map[string]bool{"/grpc.health.v1.Health/Check": true})
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	_, _ = interceptor(context.Background(), nil, info, denied)
	if len(rec.events) != 0 {
		t.Errorf("events = %d, want 0", len(rec.events))
	}
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"x-forwarded-for", incoming(map[string]string{"x-forwarded-for": "192.168.1.1"}), "192.168.1.1"},
		{"x-forwarded-for list", incoming(map[string]string{"x-forwarded-for": "192.168.1.1, 10.0.0.1"}), "192.168.1.1"},
		{"x-real-ip", incoming(map[string]string{"x-real-ip": "192.168.1.2"}), "192.168.1.2"},
		{"forwarded wins", incoming(map[string]string{"x-forwarded-for": "192.168.1.1", "x-real-ip": "192.168.1.2"}), "192.168.1.1"},
		{"whitespace", incoming(map[string]string{"x-forwarded-for": "  192.168.1.1  "}), "192.168.1.1"},
		{"peer", peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("192.168.1.3"), Port: 12345}}), "192.168.1.3"},
		{"unknown", context.Background(), "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientIP(tc.ctx); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func incoming(kv map[string]string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.New(kv))
}
