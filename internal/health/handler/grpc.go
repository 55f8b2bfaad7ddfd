package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements grpc.health.v1.Health. Check pings the storage backend so a lost
// database turns the process NOT_SERVING for load balancers and Kubernetes health checks.
type Server struct {
	*health.Server
	pinger Pinger
}

// NewServer returns a new Health gRPC server. If pinger is nil, Check skips the storage ping.
func NewServer(pinger Pinger) *Server {
	return &Server{Server: health.NewServer(), pinger: pinger}
}

// Check answers the overall ("") service with the storage ping result and every
// other service from the registered statuses.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if req.GetService() == "" && s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.pinger.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("health check: storage ping failed")
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return s.Server.Check(ctx, req)
}
