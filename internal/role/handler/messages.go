package handler

import (
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
)

// CustomRole is the wire form of a custom role.
type CustomRole struct {
	ID              string    `json:"id"`
	OrgID           string    `json:"org_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Permissions     []string  `json:"permissions"`
	Color           string    `json:"color,omitempty"`
	CreatedByUserID string    `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func customRoleFromDomain(r *domain.CustomRole) *CustomRole {
	if r == nil {
		return nil
	}
	return &CustomRole{
		ID:              r.ID,
		OrgID:           r.OrgID,
		Name:            r.Name,
		Description:     r.Description,
		Permissions:     r.Permissions.Strings(),
		Color:           r.Color,
		CreatedByUserID: r.CreatedByUserID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type ListCustomRolesRequest struct{}

type ListCustomRolesResponse struct {
	Roles []*CustomRole `json:"roles"`
}

type GetCustomRoleRequest struct {
	RoleID string `json:"role_id"`
}

type CreateCustomRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color,omitempty"`
}

// UpdateCustomRoleRequest carries a partial update; absent fields are left unchanged.
type UpdateCustomRoleRequest struct {
	RoleID      string    `json:"role_id"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	Color       *string   `json:"color,omitempty"`
}

func (r *UpdateCustomRoleRequest) patch() (domain.Patch, error) {
	p := domain.Patch{Name: r.Name, Description: r.Description, Color: r.Color}
	if r.Permissions != nil {
		perms, err := rbac.ParsePermissions(*r.Permissions)
		if err != nil {
			return domain.Patch{}, err
		}
		p.Permissions = perms
	}
	return p, nil
}

type DeleteCustomRoleRequest struct {
	RoleID string `json:"role_id"`
}

type CustomRoleResponse struct {
	Role *CustomRole `json:"role"`
}

type Empty struct{}
