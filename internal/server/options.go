package server

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/logger"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/interceptors"
)

// Options configures the interceptor chain of a gRPC server.
type Options struct {
	Logger zerolog.Logger
	// Tokens validates bearer tokens on every non-public method.
	Tokens interceptors.TokenValidator
	// Audit records permission denials. If nil, denials are not audited.
	Audit       audit.AuditLogger
	Memberships interceptors.MembershipLookup
}

// NewGRPCServer returns a grpc.Server with OpenTelemetry instrumentation and the
// logging, auth and audit interceptors, in that order.
func NewGRPCServer(opts Options, extra ...grpc.ServerOption) *grpc.Server {
	public := PublicMethods()
	chain := []grpc.UnaryServerInterceptor{
		logger.UnaryInterceptor(opts.Logger, public),
		interceptors.AuthUnary(opts.Tokens, public),
	}
	if opts.Audit != nil && opts.Memberships != nil {
		chain = append(chain, interceptors.AuditUnary(opts.Audit, opts.Memberships, public))
	}
	serverOpts := append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}, extra...)
	return grpc.NewServer(serverOpts...)
}
