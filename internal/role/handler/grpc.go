package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/service"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/rpc"
)

const ServiceName = "lynkskill.role.v1.RoleService"

// RoleServiceServer is the server API for RoleService.
type RoleServiceServer interface {
	ListCustomRoles(context.Context, *ListCustomRolesRequest) (*ListCustomRolesResponse, error)
	GetCustomRole(context.Context, *GetCustomRoleRequest) (*CustomRoleResponse, error)
	CreateCustomRole(context.Context, *CreateCustomRoleRequest) (*CustomRoleResponse, error)
	UpdateCustomRole(context.Context, *UpdateCustomRoleRequest) (*CustomRoleResponse, error)
	DeleteCustomRole(context.Context, *DeleteCustomRoleRequest) (*Empty, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListCustomRoles", RoleServiceServer.ListCustomRoles),
		rpc.Unary(ServiceName, "GetCustomRole", RoleServiceServer.GetCustomRole),
		rpc.Unary(ServiceName, "CreateCustomRole", RoleServiceServer.CreateCustomRole),
		rpc.Unary(ServiceName, "UpdateCustomRole", RoleServiceServer.UpdateCustomRole),
		rpc.Unary(ServiceName, "DeleteCustomRole", RoleServiceServer.DeleteCustomRole),
	},
	Metadata: "role/v1/role.json",
}

// Server implements RoleService.
type Server struct {
	svc *service.Service
}

func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

var _ RoleServiceServer = (*Server)(nil)

func (s *Server) ListCustomRoles(ctx context.Context, _ *ListCustomRolesRequest) (*ListCustomRolesResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.List(ctx, caller)
	if err != nil {
		return nil, rpc.Status(err)
	}
	roles := make([]*CustomRole, 0, len(list))
	for _, r := range list {
		roles = append(roles, customRoleFromDomain(r))
	}
	return &ListCustomRolesResponse{Roles: roles}, nil
}

func (s *Server) GetCustomRole(ctx context.Context, req *GetCustomRoleRequest) (*CustomRoleResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return roleResponse(s.svc.Get(ctx, caller, req.RoleID))
}

// CreateCustomRole defines a new role. Owner-reserved permissions are rejected.
func (s *Server) CreateCustomRole(ctx context.Context, req *CreateCustomRoleRequest) (*CustomRoleResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := rbac.ParsePermissions(req.Permissions)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return roleResponse(s.svc.Create(ctx, caller, service.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Permissions: perms,
		Color:       req.Color,
	}))
}

func (s *Server) UpdateCustomRole(ctx context.Context, req *UpdateCustomRoleRequest) (*CustomRoleResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	patch, err := req.patch()
	if err != nil {
		return nil, rpc.Status(err)
	}
	return roleResponse(s.svc.Update(ctx, caller, req.RoleID, patch))
}

func (s *Server) DeleteCustomRole(ctx context.Context, req *DeleteCustomRoleRequest) (*Empty, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Delete(ctx, caller, req.RoleID); err != nil {
		return nil, rpc.Status(err)
	}
	return &Empty{}, nil
}

func roleResponse(r *domain.CustomRole, err error) (*CustomRoleResponse, error) {
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &CustomRoleResponse{Role: customRoleFromDomain(r)}, nil
}
