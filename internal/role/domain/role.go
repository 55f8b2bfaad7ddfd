package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 500
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CustomRole is an organization-defined bundle of non-reserved permissions.
type CustomRole struct {
	ID              string
	OrgID           string
	Name            string
	Description     string
	Permissions     rbac.Set
	Color           string
	CreatedByUserID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate normalizes and checks r for persistence. Returns the first failure, wrapping errs.ErrValidation.
func (r *CustomRole) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Color = strings.TrimSpace(r.Color)
	if r.Name == "" {
		return fmt.Errorf("%w: role name is required", errs.ErrValidation)
	}
	if len(r.Name) > maxNameLength {
		return fmt.Errorf("%w: role name exceeds %d characters", errs.ErrValidation, maxNameLength)
	}
	if len(r.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", errs.ErrValidation, maxDescriptionLength)
	}
	if r.Color != "" && !colorPattern.MatchString(r.Color) {
		return fmt.Errorf("%w: color must be #rrggbb", errs.ErrValidation)
	}
	if len(r.Permissions) == 0 {
		return fmt.Errorf("%w: at least one permission is required", errs.ErrValidation)
	}
	if r.Permissions.Intersects(rbac.OwnerReserved()) {
		return rbac.ErrReservedPermission
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *CustomRole) Clone() *CustomRole {
	if r == nil {
		return nil
	}
	c := *r
	c.Permissions = r.Permissions.Clone()
	return &c
}

// Patch holds the optional fields of an update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
	Permissions rbac.Set
	Color       *string
}

// Apply returns a copy of r with p applied.
func (p Patch) Apply(r *CustomRole) *CustomRole {
	out := r.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Permissions != nil {
		out.Permissions = p.Permissions.Clone()
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	return out
}
