package handler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/repository"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/rpc"
)

const ServiceName = "lynkskill.audit.v1.AuditService"

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// AuditServiceServer is the server API for AuditService.
type AuditServiceServer interface {
	ListAuditLogs(context.Context, *ListAuditLogsRequest) (*ListAuditLogsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuditServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListAuditLogs", AuditServiceServer.ListAuditLogs),
	},
	Metadata: "audit/v1/audit.json",
}

// AuditLog is the wire form of an audit entry. Metadata is a JSON object encoded as a string.
type AuditLog struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListAuditLogsRequest struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListAuditLogsResponse struct {
	Logs          []*AuditLog `json:"logs"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

// Server implements AuditService for audit logs.
type Server struct {
	repo   repository.Repository
	access *access.Resolver
}

// NewServer returns a new Audit gRPC server.
func NewServer(repo repository.Repository, resolver *access.Resolver) *Server {
	return &Server{repo: repo, access: resolver}
}

var _ AuditServiceServer = (*Server)(nil)

// ListAuditLogs returns the caller's organization log newest first. Requires EDIT_COMPANY.
func (s *Server) ListAuditLogs(ctx context.Context, req *ListAuditLogsRequest) (*ListAuditLogsResponse, error) {
	if s.repo == nil {
		return nil, status.Error(codes.Unimplemented, "method ListAuditLogs not implemented")
	}
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.access.ActiveActor(ctx, caller)
	if err != nil {
		return nil, rpc.Status(err)
	}
	if err := actor.Require(rbac.PermEditCompany); err != nil {
		return nil, rpc.Status(err)
	}

	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	offset, err := parsePageToken(req.PageToken)
	if err != nil {
		return nil, rpc.Status(err)
	}
	// One extra row tells whether another page exists.
	list, err := s.repo.ListByOrg(ctx, actor.OrgID(), size+1, offset)
	if err != nil {
		return nil, rpc.Status(err)
	}
	resp := &ListAuditLogsResponse{Logs: make([]*AuditLog, 0, len(list))}
	if int32(len(list)) > size {
		list = list[:size]
		resp.NextPageToken = strconv.FormatInt(int64(offset+size), 10)
	}
	for _, a := range list {
		resp.Logs = append(resp.Logs, auditLogFromDomain(a))
	}
	return resp, nil
}

func parsePageToken(token string) (int32, error) {
	if token == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(token, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid page token", errs.ErrValidation)
	}
	return int32(n), nil
}

func auditLogFromDomain(a *domain.AuditLog) *AuditLog {
	return &AuditLog{
		ID:        a.ID,
		OrgID:     a.OrgID,
		UserID:    a.UserID,
		Action:    a.Action,
		Resource:  a.Resource,
		IP:        a.IP,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	}
}
