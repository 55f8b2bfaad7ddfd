package handler

import (
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	membershiphandler "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/handler"
)

// JoinCode is the wire form of an organization's join code.
type JoinCode struct {
	OrgID       string     `json:"org_id"`
	Code        string     `json:"code"`
	Enabled     bool       `json:"enabled"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	MaxMembers  *int       `json:"max_members,omitempty"`
	UsageCount  int        `json:"usage_count"`
	LastRegenAt time.Time  `json:"last_regen_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func joinCodeFromDomain(c *domain.JoinCode) *JoinCode {
	if c == nil {
		return nil
	}
	return &JoinCode{
		OrgID:       c.OrgID,
		Code:        c.Code,
		Enabled:     c.Enabled,
		ExpiresAt:   c.ExpiresAt,
		MaxMembers:  c.MaxMembers,
		UsageCount:  c.UsageCount,
		LastRegenAt: c.LastRegenAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type GetJoinCodeRequest struct{}

type RegenerateJoinCodeRequest struct{}

// UpdateJoinCodeRequest carries a partial update. The Clear flags remove the expiry or limit.
type UpdateJoinCodeRequest struct {
	Enabled         *bool      `json:"enabled,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ClearExpiry     bool       `json:"clear_expiry,omitempty"`
	MaxMembers      *int       `json:"max_members,omitempty"`
	ClearMaxMembers bool       `json:"clear_max_members,omitempty"`
}

type JoinCodeResponse struct {
	JoinCode *JoinCode `json:"join_code"`
}

type JoinWithCodeRequest struct {
	Code string `json:"code"`
}

type JoinWithCodeResponse struct {
	Membership *membershiphandler.Membership `json:"membership"`
}
