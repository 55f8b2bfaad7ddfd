package memory

import (
	"fmt"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

var (
	errMembershipExists  = fmt.Errorf("%w: user already belongs to an organization", errs.ErrConflict)
	errMembershipMissing = fmt.Errorf("%w: membership", errs.ErrNotFound)
	errSecondOwner       = fmt.Errorf("%w: organization already has an owner", errs.ErrOwnerInvariant)
	errRoleNameTaken     = fmt.Errorf("%w: role name already exists in organization", errs.ErrConflict)
	errRoleMissing       = fmt.Errorf("%w: role", errs.ErrNotFound)
	errRoleInUse         = fmt.Errorf("%w: role is still assigned to members", errs.ErrConflict)
	errTransferPending   = fmt.Errorf("%w: ownership transfer already pending", errs.ErrConflict)
	errTransferMissing   = fmt.Errorf("%w: transfer request", errs.ErrNotFound)
	errTransferState     = fmt.Errorf("%w: transfer request changed state", errs.ErrInvalidState)
	errCodeTaken         = fmt.Errorf("%w: join code already in use", errs.ErrConflict)
	errCodeMissing       = fmt.Errorf("%w: join code", errs.ErrNotFound)
	errOrgExists         = fmt.Errorf("%w: organization already exists", errs.ErrConflict)
	errUserExists        = fmt.Errorf("%w: user already exists", errs.ErrConflict)
)
