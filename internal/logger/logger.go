// Package logger configures zerolog and logs gRPC calls.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Setup builds the process logger and installs it as the global zerolog logger.
// dev switches to console output at debug level.
func Setup(dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()
	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return logger
}

// UnaryInterceptor attaches a request-scoped logger to the context and logs each call
// with its method, status code and duration. skip silences noisy methods such as health checks.
func UnaryInterceptor(logger zerolog.Logger, skip map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		ctx = logger.With().Str("method", info.FullMethod).Logger().WithContext(ctx)

		resp, err := handler(ctx, req)
		if skip[info.FullMethod] {
			return resp, err
		}

		code := status.Code(err)
		ev := zerolog.Ctx(ctx).Info()
		if err != nil {
			ev = zerolog.Ctx(ctx).Warn().Err(err)
		}
		ev.Str("code", code.String()).
			Dur("duration", time.Since(started)).
			Msg("rpc call")
		return resp, err
	}
}
