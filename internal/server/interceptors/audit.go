package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
)

// MembershipLookup finds the organization a user belongs to.
type MembershipLookup interface {
	GetByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error)
}

// AuditUnary returns a unary server interceptor that records an access_denied audit event
// when a call fails with PermissionDenied. Successful mutations are audited by the services.
// The event goes to the caller's organization, or to the system sentinel for non-members.
func AuditUnary(logger audit.AuditLogger, memberships MembershipLookup, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil || skipMethods[info.FullMethod] || status.Code(err) != codes.PermissionDenied {
			return resp, err
		}
		userID, _ := GetUserID(ctx)
		orgID := ""
		if userID != "" {
			if m, lookupErr := memberships.GetByUser(ctx, userID); lookupErr == nil && m != nil {
				orgID = m.OrgID
			}
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		logger.LogEvent(ctx, orgID, userID, audit.ActionAccessDenied, ar.Resource, audit.Metadata(map[string]any{
			"method": info.FullMethod,
			"action": ar.Action,
		}))
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
