package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	audithandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/handler"
	auditrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/repository"
	healthhandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/health/handler"
	joincodehandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/handler"
	joincodeservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/service"
	membershiphandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/handler"
	membershipservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/service"
	rolehandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/handler"
	roleservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/service"
	transferhandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/handler"
	transferservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/service"
)

// Deps holds the services behind the gRPC handlers.
type Deps struct {
	Memberships *membershipservice.Service
	Roles       *roleservice.Service
	Transfers   *transferservice.Service
	JoinCodes   *joincodeservice.Service
	// AuditRepo backs AuditService. If nil, ListAuditLogs returns Unimplemented.
	AuditRepo auditrepo.Repository
	// Access gates ListAuditLogs.
	Access *access.Resolver
	// HealthPinger is pinged by the health check. If nil, Check skips the storage ping.
	HealthPinger healthhandler.Pinger
}

// PublicMethods lists the full method names callable without a bearer token.
func PublicMethods() map[string]bool {
	return map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
		healthpb.Health_List_FullMethodName:  true,
		healthpb.Health_Watch_FullMethodName: true,
	}
}

// RegisterServices registers all gRPC services with s and returns the health server so
// the caller can flip it to NOT_SERVING on shutdown.
//
// Service → handler mapping:
//   - MembershipService → internal/membership/handler
//   - RoleService       → internal/role/handler
//   - TransferService   → internal/transfer/handler
//   - JoinCodeService   → internal/joincode/handler
//   - AuditService      → internal/audit/handler
//   - grpc.health.v1    → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) *healthhandler.Server {
	s.RegisterService(&membershiphandler.ServiceDesc, membershiphandler.NewServer(deps.Memberships))
	s.RegisterService(&rolehandler.ServiceDesc, rolehandler.NewServer(deps.Roles))
	s.RegisterService(&transferhandler.ServiceDesc, transferhandler.NewServer(deps.Transfers))
	s.RegisterService(&joincodehandler.ServiceDesc, joincodehandler.NewServer(deps.JoinCodes))
	s.RegisterService(&audithandler.ServiceDesc, audithandler.NewServer(deps.AuditRepo, deps.Access))

	health := healthhandler.NewServer(deps.HealthPinger)
	healthpb.RegisterHealthServer(s, health)
	for _, name := range []string{
		membershiphandler.ServiceName,
		rolehandler.ServiceName,
		transferhandler.ServiceName,
		joincodehandler.ServiceName,
		audithandler.ServiceName,
	} {
		health.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return health
}
