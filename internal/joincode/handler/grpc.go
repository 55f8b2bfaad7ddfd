package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/service"
	membershiphandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/handler"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/rpc"
)

const ServiceName = "lynkskill.joincode.v1.JoinCodeService"

// JoinCodeServiceServer is the server API for JoinCodeService.
type JoinCodeServiceServer interface {
	GetJoinCode(context.Context, *GetJoinCodeRequest) (*JoinCodeResponse, error)
	RegenerateJoinCode(context.Context, *RegenerateJoinCodeRequest) (*JoinCodeResponse, error)
	UpdateJoinCode(context.Context, *UpdateJoinCodeRequest) (*JoinCodeResponse, error)
	JoinWithCode(context.Context, *JoinWithCodeRequest) (*JoinWithCodeResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JoinCodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetJoinCode", JoinCodeServiceServer.GetJoinCode),
		rpc.Unary(ServiceName, "RegenerateJoinCode", JoinCodeServiceServer.RegenerateJoinCode),
		rpc.Unary(ServiceName, "UpdateJoinCode", JoinCodeServiceServer.UpdateJoinCode),
		rpc.Unary(ServiceName, "JoinWithCode", JoinCodeServiceServer.JoinWithCode),
	},
	Metadata: "joincode/v1/joincode.json",
}

// Server implements JoinCodeService.
type Server struct {
	svc *service.Service
}

func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

var _ JoinCodeServiceServer = (*Server)(nil)

func (s *Server) GetJoinCode(ctx context.Context, _ *GetJoinCodeRequest) (*JoinCodeResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return joinCodeResponse(s.svc.Get(ctx, caller))
}

func (s *Server) RegenerateJoinCode(ctx context.Context, _ *RegenerateJoinCodeRequest) (*JoinCodeResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return joinCodeResponse(s.svc.Regenerate(ctx, caller))
}

func (s *Server) UpdateJoinCode(ctx context.Context, req *UpdateJoinCodeRequest) (*JoinCodeResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return joinCodeResponse(s.svc.Update(ctx, caller, service.UpdateParams{
		Enabled:         req.Enabled,
		ExpiresAt:       req.ExpiresAt,
		ClearExpiry:     req.ClearExpiry,
		MaxMembers:      req.MaxMembers,
		ClearMaxMembers: req.ClearMaxMembers,
	}))
}

// JoinWithCode admits the caller as a VIEWER of the code's organization.
func (s *Server) JoinWithCode(ctx context.Context, req *JoinWithCodeRequest) (*JoinWithCodeResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.svc.Join(ctx, caller, req.Code)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &JoinWithCodeResponse{Membership: membershiphandler.MembershipFromDomain(m)}, nil
}

func joinCodeResponse(c *domain.JoinCode, err error) (*JoinCodeResponse, error) {
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &JoinCodeResponse{JoinCode: joinCodeFromDomain(c)}, nil
}
