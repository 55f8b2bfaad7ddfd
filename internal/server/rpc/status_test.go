package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"unauthorized", errs.ErrUnauthorized, codes.Unauthenticated},
		{"permission", fmt.Errorf("%w: missing CHANGE_ROLES", errs.ErrPermissionDenied), codes.PermissionDenied},
		{"not found", fmt.Errorf("%w: membership", errs.ErrNotFound), codes.NotFound},
		{"conflict", fmt.Errorf("%w: pending", errs.ErrConflict), codes.AlreadyExists},
		{"invalid state", fmt.Errorf("%w: expired", errs.ErrInvalidState), codes.FailedPrecondition},
		{"validation", fmt.Errorf("%w: bad", errs.ErrValidation), codes.InvalidArgument},
		{"owner invariant", fmt.Errorf("%w: owner cannot leave", errs.ErrOwnerInvariant), codes.FailedPrecondition},
		{"canceled", context.Canceled, codes.Canceled},
		{"unknown", errors.New("connection reset"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, status.Code(Status(tt.err)))
		})
	}
}

func TestStatus_OwnerInvariantPrefix(t *testing.T) {
	st, ok := status.FromError(Status(fmt.Errorf("%w: owner cannot leave", errs.ErrOwnerInvariant)))
	require.True(t, ok)
	require.True(t, strings.HasPrefix(st.Message(), OwnerInvariantPrefix))

	st, ok = status.FromError(Status(fmt.Errorf("%w: expired", errs.ErrInvalidState)))
	require.True(t, ok)
	require.False(t, strings.HasPrefix(st.Message(), OwnerInvariantPrefix))
}

func TestStatus_PassThrough(t *testing.T) {
	require.Nil(t, Status(nil))
	in := status.Error(codes.Unavailable, "down")
	require.Equal(t, in, Status(in))
}

func TestStatus_InternalHidesDetail(t *testing.T) {
	st, _ := status.FromError(Status(errors.New("password=hunter2")))
	require.Equal(t, "internal error", st.Message())
}

func TestCodec_RoundTrip(t *testing.T) {
	type msg struct {
		ID    string   `json:"id"`
		Perms []string `json:"perms"`
	}
	var c Codec
	b, err := c.Marshal(&msg{ID: "m1", Perms: []string{"EDIT_COMPANY"}})
	require.NoError(t, err)
	var out msg
	require.NoError(t, c.Unmarshal(b, &out))
	require.Equal(t, "m1", out.ID)
	require.NoError(t, c.Unmarshal(nil, &out))
	require.Equal(t, CodecName, c.Name())
}
