package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptor_LogsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ic := UnaryInterceptor(logger, map[string]bool{"/grpc.health.v1.Health/Check": true})
	info := &grpc.UnaryServerInfo{FullMethod: "/lynkskill.membership.v1.MembershipService/Leave"}

	_, err := ic(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		zerolog.Ctx(ctx).Debug().Msg("inside")
		return nil, status.Error(codes.FailedPrecondition, "owner")
	})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	require.Equal(t, info.FullMethod, entry["method"])
	require.Equal(t, "FailedPrecondition", entry["code"])
	require.Equal(t, "warn", entry["level"])
}

func TestUnaryInterceptor_Skip(t *testing.T) {
	var buf bytes.Buffer
	ic := UnaryInterceptor(zerolog.New(&buf), map[string]bool{"/grpc.health.v1.Health/Check": true})
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	require.Zero(t, buf.Len())
}
