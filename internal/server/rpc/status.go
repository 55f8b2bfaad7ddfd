package rpc

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// OwnerInvariantPrefix starts the message of every owner-invariant status so clients can
// tell it apart from other failed preconditions.
const OwnerInvariantPrefix = "owner invariant: "

// Status converts a service error into a gRPC status error. Unclassified errors are
// logged and reported as Internal without leaking their text.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	switch errs.Kind(err) {
	case errs.ErrOwnerInvariant:
		return status.Error(codes.FailedPrecondition, OwnerInvariantPrefix+err.Error())
	case errs.ErrUnauthorized:
		return status.Error(codes.Unauthenticated, err.Error())
	case errs.ErrPermissionDenied:
		return status.Error(codes.PermissionDenied, err.Error())
	case errs.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case errs.ErrConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case errs.ErrInvalidState:
		return status.Error(codes.FailedPrecondition, err.Error())
	case errs.ErrValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	}
	log.Error().Err(err).Msg("unclassified service error")
	return status.Error(codes.Internal, "internal error")
}
