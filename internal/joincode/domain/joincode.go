package domain

import (
	"fmt"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// JoinCode is an organization's shareable code for self-service joining.
type JoinCode struct {
	OrgID       string
	Code        string
	Enabled     bool
	ExpiresAt   *time.Time
	MaxMembers  *int
	UsageCount  int
	LastRegenAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	// ErrStale is returned when a regeneration lost a race with another one.
	ErrStale    = fmt.Errorf("%w: join code changed concurrently", errs.ErrInvalidState)
	ErrDisabled = fmt.Errorf("%w: join code is disabled", errs.ErrInvalidState)
	ErrExpired  = fmt.Errorf("%w: join code has expired", errs.ErrInvalidState)
	ErrFull     = fmt.Errorf("%w: organization has reached its member limit", errs.ErrInvalidState)
)

// Usable reports why c cannot admit a new member at now given the current active member count.
func (c *JoinCode) Usable(now time.Time, activeMembers int64) error {
	if !c.Enabled {
		return ErrDisabled
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return ErrExpired
	}
	if c.MaxMembers != nil && activeMembers >= int64(*c.MaxMembers) {
		return ErrFull
	}
	return nil
}

// Patch changes the settings of a join code. Nil fields are left unchanged;
// the Clear flags remove an expiry or member limit. The code itself, its usage count
// and its regeneration time are never part of a patch.
type Patch struct {
	Enabled         *bool
	ExpiresAt       *time.Time
	ClearExpiry     bool
	MaxMembers      *int
	ClearMaxMembers bool
}

// Apply writes the set fields of p into c.
func (p Patch) Apply(c *JoinCode) {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	switch {
	case p.ClearExpiry:
		c.ExpiresAt = nil
	case p.ExpiresAt != nil:
		t := p.ExpiresAt.UTC()
		c.ExpiresAt = &t
	}
	switch {
	case p.ClearMaxMembers:
		c.MaxMembers = nil
	case p.MaxMembers != nil:
		n := *p.MaxMembers
		c.MaxMembers = &n
	}
}

// NextRegenAt is the earliest time the code may be regenerated again.
func (c *JoinCode) NextRegenAt(interval time.Duration) time.Time {
	return c.LastRegenAt.Add(interval)
}

// Clone returns a deep copy of c.
func (c *JoinCode) Clone() *JoinCode {
	if c == nil {
		return nil
	}
	out := *c
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	if c.MaxMembers != nil {
		n := *c.MaxMembers
		out.MaxMembers = &n
	}
	return &out
}
