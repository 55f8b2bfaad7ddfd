package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/service"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/rpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "lynkskill.membership.v1.MembershipService"

// MembershipServiceServer is the server API for MembershipService.
type MembershipServiceServer interface {
	ResolvePermissions(context.Context, *ResolvePermissionsRequest) (*ResolvePermissionsResponse, error)
	HasPermission(context.Context, *HasPermissionRequest) (*HasPermissionResponse, error)
	ListMembers(context.Context, *ListMembersRequest) (*ListMembersResponse, error)
	AssignRole(context.Context, *AssignRoleRequest) (*MembershipResponse, error)
	SetExtraPermissions(context.Context, *SetExtraPermissionsRequest) (*MembershipResponse, error)
	RemoveMember(context.Context, *RemoveMemberRequest) (*Empty, error)
	Leave(context.Context, *LeaveRequest) (*Empty, error)
	InviteMember(context.Context, *InviteMemberRequest) (*MembershipResponse, error)
	AcceptInvitation(context.Context, *AcceptInvitationRequest) (*MembershipResponse, error)
	SetMemberStatus(context.Context, *SetMemberStatusRequest) (*MembershipResponse, error)
}

// ServiceDesc describes MembershipService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MembershipServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ResolvePermissions", MembershipServiceServer.ResolvePermissions),
		rpc.Unary(ServiceName, "HasPermission", MembershipServiceServer.HasPermission),
		rpc.Unary(ServiceName, "ListMembers", MembershipServiceServer.ListMembers),
		rpc.Unary(ServiceName, "AssignRole", MembershipServiceServer.AssignRole),
		rpc.Unary(ServiceName, "SetExtraPermissions", MembershipServiceServer.SetExtraPermissions),
		rpc.Unary(ServiceName, "RemoveMember", MembershipServiceServer.RemoveMember),
		rpc.Unary(ServiceName, "Leave", MembershipServiceServer.Leave),
		rpc.Unary(ServiceName, "InviteMember", MembershipServiceServer.InviteMember),
		rpc.Unary(ServiceName, "AcceptInvitation", MembershipServiceServer.AcceptInvitation),
		rpc.Unary(ServiceName, "SetMemberStatus", MembershipServiceServer.SetMemberStatus),
	},
	Metadata: "membership/v1/membership.json",
}

// Server implements MembershipService on top of the membership service.
type Server struct {
	svc *service.Service
}

// NewServer returns a new Membership gRPC server.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

var _ MembershipServiceServer = (*Server)(nil)

// ResolvePermissions returns the effective permission set of the caller or of another member.
func (s *Server) ResolvePermissions(ctx context.Context, req *ResolvePermissionsRequest) (*ResolvePermissionsResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	set, err := s.svc.ResolvePermissions(ctx, caller, req.MembershipID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &ResolvePermissionsResponse{Permissions: set.Strings()}, nil
}

// HasPermission reports whether the member holds the permission.
func (s *Server) HasPermission(ctx context.Context, req *HasPermissionRequest) (*HasPermissionResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.HasPermission(ctx, caller, req.MembershipID, rbac.Permission(req.Permission))
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &HasPermissionResponse{Allowed: ok}, nil
}

// ListMembers returns the caller's organization members with their effective permissions.
func (s *Server) ListMembers(ctx context.Context, _ *ListMembersRequest) (*ListMembersResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.ListMembers(ctx, caller)
	if err != nil {
		return nil, rpc.Status(err)
	}
	members := make([]*Membership, 0, len(list))
	for _, m := range list {
		out := MembershipFromDomain(m.Membership)
		out.Permissions = m.Permissions.Strings()
		members = append(members, out)
	}
	return &ListMembersResponse{Members: members}, nil
}

// AssignRole changes a member's role.
func (s *Server) AssignRole(ctx context.Context, req *AssignRoleRequest) (*MembershipResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := req.Role.ToDomain()
	if err != nil {
		return nil, rpc.Status(err)
	}
	return membershipResponse(s.svc.AssignRole(ctx, caller, req.MembershipID, ref))
}

// SetExtraPermissions replaces a member's extra permissions.
func (s *Server) SetExtraPermissions(ctx context.Context, req *SetExtraPermissionsRequest) (*MembershipResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := rbac.ParsePermissions(req.Permissions)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return membershipResponse(s.svc.SetExtraPermissions(ctx, caller, req.MembershipID, perms))
}

// RemoveMember removes another member from the organization.
func (s *Server) RemoveMember(ctx context.Context, req *RemoveMemberRequest) (*Empty, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.RemoveMember(ctx, caller, req.MembershipID); err != nil {
		return nil, rpc.Status(err)
	}
	return &Empty{}, nil
}

// Leave removes the caller's own membership.
func (s *Server) Leave(ctx context.Context, _ *LeaveRequest) (*Empty, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Leave(ctx, caller); err != nil {
		return nil, rpc.Status(err)
	}
	return &Empty{}, nil
}

// InviteMember invites a directory user into the caller's organization.
func (s *Server) InviteMember(ctx context.Context, req *InviteMemberRequest) (*MembershipResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return membershipResponse(s.svc.InviteMember(ctx, caller, req.UserID))
}

// AcceptInvitation activates the caller's pending invitation.
func (s *Server) AcceptInvitation(ctx context.Context, _ *AcceptInvitationRequest) (*MembershipResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return membershipResponse(s.svc.AcceptInvitation(ctx, caller))
}

// SetMemberStatus suspends or reactivates a member.
func (s *Server) SetMemberStatus(ctx context.Context, req *SetMemberStatusRequest) (*MembershipResponse, error) {
	caller, err := rpc.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return membershipResponse(s.svc.SetMemberStatus(ctx, caller, req.MembershipID, domain.Status(req.Status)))
}

func membershipResponse(m *domain.Membership, err error) (*MembershipResponse, error) {
	if err != nil {
		return nil, rpc.Status(err)
	}
	return &MembershipResponse{Membership: MembershipFromDomain(m)}, nil
}
