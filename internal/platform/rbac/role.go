package rbac

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// DefaultRole is a built-in role. Higher values rank higher.
type DefaultRole int

const (
	// RoleViewer has read-only access.
	RoleViewer DefaultRole = iota + 1
	// RoleHRRecruiter runs day-to-day hiring.
	RoleHRRecruiter
	// RoleHRManager runs hiring and invites members.
	RoleHRManager
	// RoleAdmin holds everything except owner-reserved permissions.
	RoleAdmin
	// RoleOwner holds the full catalog. Exactly one per organization.
	RoleOwner
)

// ErrInvalidRole is returned when parsing an unknown default role name.
var ErrInvalidRole = fmt.Errorf("%w: invalid role", errs.ErrValidation)

// String returns the role name.
func (r DefaultRole) String() string {
	switch r {
	case RoleViewer:
		return "VIEWER"
	case RoleHRRecruiter:
		return "HR_RECRUITER"
	case RoleHRManager:
		return "HR_MANAGER"
	case RoleAdmin:
		return "ADMIN"
	case RoleOwner:
		return "OWNER"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether r is one of the built-in roles.
func (r DefaultRole) Valid() bool {
	return r >= RoleViewer && r <= RoleOwner
}

// Rank returns r's position in the hierarchy.
func (r DefaultRole) Rank() Rank {
	if !r.Valid() {
		return 0
	}
	return Rank(r)
}

// Permissions returns a copy of r's static permission set.
func (r DefaultRole) Permissions() Set {
	return defaultRolePermissions[r].Clone()
}

// ParseDefaultRole parses a role name. Matching is case-insensitive.
func ParseDefaultRole(s string) (DefaultRole, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VIEWER":
		return RoleViewer, nil
	case "HR_RECRUITER":
		return RoleHRRecruiter, nil
	case "HR_MANAGER":
		return RoleHRManager, nil
	case "ADMIN":
		return RoleAdmin, nil
	case "OWNER":
		return RoleOwner, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

var (
	_ encoding.TextMarshaler   = DefaultRole(0)
	_ encoding.TextUnmarshaler = (*DefaultRole)(nil)
)

// MarshalText implements encoding.TextMarshaler.
func (r DefaultRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *DefaultRole) UnmarshalText(text []byte) error {
	v, err := ParseDefaultRole(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

var defaultRolePermissions = map[DefaultRole]Set{
	RoleOwner: NewSet(catalog...),
	RoleAdmin: NewSet(catalog...).Without(ownerReserved),
	RoleHRManager: NewSet(
		PermInviteMembers,
		PermViewInternships, PermCreateInternships, PermEditInternships, PermDeleteInternships,
		PermViewApplications, PermManageApplications,
		PermViewCandidates, PermSearchCandidates,
		PermScheduleInterviews, PermConductInterviews,
		PermSendMessages, PermViewMessages,
		PermCreateAssignments, PermGradeAssignments,
		PermViewAnalytics,
	),
	RoleHRRecruiter: NewSet(
		PermViewInternships, PermCreateInternships, PermEditInternships,
		PermViewApplications, PermManageApplications,
		PermViewCandidates, PermSearchCandidates,
		PermScheduleInterviews, PermConductInterviews,
		PermSendMessages, PermViewMessages,
		PermCreateAssignments, PermGradeAssignments,
	),
	RoleViewer: NewSet(
		PermViewInternships,
		PermViewApplications,
		PermViewCandidates,
		PermViewMessages,
	),
}

type refKind uint8

const (
	refNone refKind = iota
	refDefault
	refCustom
)

// RoleRef points a membership at exactly one role: a default role or a custom role.
// The fields are unexported so a ref can only be built through DefaultRef or CustomRef;
// the zero value is "no role" and is rejected by Validate.
type RoleRef struct {
	kind     refKind
	role     DefaultRole
	customID string
}

// DefaultRef references a built-in role.
func DefaultRef(r DefaultRole) RoleRef {
	return RoleRef{kind: refDefault, role: r}
}

// CustomRef references an organization's custom role by id.
func CustomRef(id string) RoleRef {
	return RoleRef{kind: refCustom, customID: id}
}

// Default returns the built-in role and true when r references one.
func (r RoleRef) Default() (DefaultRole, bool) {
	return r.role, r.kind == refDefault
}

// Custom returns the custom role id and true when r references one.
func (r RoleRef) Custom() (string, bool) {
	return r.customID, r.kind == refCustom
}

// IsOwner reports whether r is Default(OWNER).
func (r RoleRef) IsOwner() bool {
	return r.kind == refDefault && r.role == RoleOwner
}

// IsZero reports whether r references no role.
func (r RoleRef) IsZero() bool {
	return r.kind == refNone
}

// Validate reports whether r references exactly one well-formed role.
func (r RoleRef) Validate() error {
	switch r.kind {
	case refDefault:
		if !r.role.Valid() {
			return ErrInvalidRole
		}
		return nil
	case refCustom:
		if strings.TrimSpace(r.customID) == "" {
			return fmt.Errorf("%w: custom role id is required", errs.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: role is required", errs.ErrValidation)
	}
}

// String renders r as Default(NAME) or Custom(id).
func (r RoleRef) String() string {
	switch r.kind {
	case refDefault:
		return "Default(" + r.role.String() + ")"
	case refCustom:
		return "Custom(" + r.customID + ")"
	default:
		return "None"
	}
}
