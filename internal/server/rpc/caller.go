package rpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/interceptors"
)

// Caller returns the authenticated user id set by the auth interceptor.
func Caller(ctx context.Context) (string, error) {
	id, ok := interceptors.GetUserID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	return id, nil
}
