package rbac

import (
	"fmt"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// Rank orders roles for the hierarchy guard. Zero is below every role.
type Rank int

// CanManage reports whether an actor at actor rank may modify a member at target rank.
// It is strict: nobody manages their own rank or anything above it.
func CanManage(actor, target Rank) bool {
	return actor > target
}

// Hierarchy ranks role references. Custom roles have no rank of their own and are
// compared at a single configured bucket.
type Hierarchy struct {
	customRank Rank
}

// ErrInvalidCustomRank is returned when the custom role bucket is outside VIEWER..ADMIN.
var ErrInvalidCustomRank = fmt.Errorf("%w: custom role rank must be between VIEWER and ADMIN", errs.ErrValidation)

// NewHierarchy returns a Hierarchy that ranks every custom role as customRole.
func NewHierarchy(customRole DefaultRole) (Hierarchy, error) {
	if customRole < RoleViewer || customRole > RoleAdmin {
		return Hierarchy{}, ErrInvalidCustomRank
	}
	return Hierarchy{customRank: customRole.Rank()}, nil
}

// DefaultHierarchy ranks custom roles with VIEWER.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{customRank: RoleViewer.Rank()}
}

// RankOf returns the rank of ref. The zero ref ranks 0.
func (h Hierarchy) RankOf(ref RoleRef) Rank {
	switch ref.kind {
	case refDefault:
		return ref.role.Rank()
	case refCustom:
		if h.customRank == 0 {
			return RoleViewer.Rank()
		}
		return h.customRank
	default:
		return 0
	}
}

// CanManageRef reports whether a holder of actor may modify a holder of target.
func (h Hierarchy) CanManageRef(actor, target RoleRef) bool {
	return CanManage(h.RankOf(actor), h.RankOf(target))
}
